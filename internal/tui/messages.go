package tui

// queryTickMsg fires when the debounce window opened by an edit elapses.
type queryTickMsg struct {
	token uint64
}

// searchResultMsg carries a finished request back to the update loop.
type searchResultMsg struct {
	seq     uint64
	query   string
	results []string
	err     error
}
