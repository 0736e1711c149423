package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgomes/newsfind/internal/debounce"
	"github.com/mgomes/newsfind/internal/search"
	"github.com/sirupsen/logrus"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusResults
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusResults:
		return "results"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ViewState is everything the result area shows. Each render replaces the
// previous state wholesale.
type ViewState struct {
	Status  Status
	Results []string
	Error   string
}

func Idle() ViewState    { return ViewState{Status: StatusIdle} }
func Loading() ViewState { return ViewState{Status: StatusLoading} }

func Results(results []string) ViewState {
	if results == nil {
		results = []string{}
	}
	return ViewState{Status: StatusResults, Results: results}
}

func Failed(reason string) ViewState {
	return ViewState{Status: StatusFailed, Error: reason}
}

const (
	headerLines  = 5
	footerLines  = 2
	linesPerItem = 2
	defaultWidth = 80
)

type SearchModel struct {
	searcher search.Searcher
	debounce time.Duration
	log      logrus.FieldLogger

	input   textinput.Model
	spinner spinner.Model

	gate debounce.Gate[string]
	// token identifies the debounce window opened by the most recent edit.
	token uint64

	// seq is the sequence number of the latest dispatched request; only its
	// response may render.
	seq    uint64
	cancel context.CancelFunc
	closed bool

	state    ViewState
	selected int
	offset   int
	width    int
	height   int
}

func NewSearchModel(searcher search.Searcher, debounceWindow time.Duration, log logrus.FieldLogger) SearchModel {
	input := textinput.New()
	input.Placeholder = "Insert query to start search..."
	input.Prompt = "> "
	input.Width = defaultWidth - 8
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return SearchModel{
		searcher: searcher,
		debounce: debounceWindow,
		log:      log,
		input:    input,
		spinner:  sp,
		state:    Idle(),
	}
}

func (m SearchModel) State() ViewState {
	return m.state
}

func (m SearchModel) Query() string {
	return m.input.Value()
}

func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.teardown()
			return m, tea.Quit

		case "up", "ctrl+p":
			m.moveSelection(-1)
			return m, nil

		case "down", "ctrl+n":
			m.moveSelection(1)
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if value := m.input.Value(); value != before {
			return m, tea.Batch(cmd, m.queueQuery(value))
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-8)
		m.ensureVisible()

	case queryTickMsg:
		query, ok := m.gate.Settle(msg.token)
		if !ok {
			return m, nil
		}
		return m, m.dispatch(query)

	case searchResultMsg:
		m.deliver(msg)

	case spinner.TickMsg:
		if m.state.Status != StatusLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// queueQuery opens a new debounce window for value. The tick it returns
// settles the window on the update loop.
func (m *SearchModel) queueQuery(value string) tea.Cmd {
	token := m.gate.Push(value)
	m.token = token
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return queryTickMsg{token: token}
	})
}

// dispatch starts a search for query, superseding any request in flight.
func (m *SearchModel) dispatch(query string) tea.Cmd {
	m.seq++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if query == "" {
		m.render(Results(nil))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.render(Loading())

	seq := m.seq
	searcher := m.searcher
	m.log.WithFields(logrus.Fields{"query": query, "seq": seq}).Debug("dispatching search")

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		results, err := searcher.Search(ctx, query)
		return searchResultMsg{seq: seq, query: query, results: results, err: err}
	})
}

func (m *SearchModel) deliver(msg searchResultMsg) {
	if msg.seq != m.seq {
		m.log.WithFields(logrus.Fields{"query": msg.query, "seq": msg.seq, "latest": m.seq}).Debug("discarding stale response")
		return
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if msg.err != nil {
		m.render(Failed(errorReason(msg.err)))
		return
	}
	m.render(Results(msg.results))
}

func (m *SearchModel) render(state ViewState) {
	m.state = state
	m.selected = 0
	m.offset = 0
}

// teardown cancels outstanding work; nothing renders afterwards.
func (m *SearchModel) teardown() {
	m.closed = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *SearchModel) moveSelection(delta int) {
	if m.state.Status != StatusResults || len(m.state.Results) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.state.Results)-1)
	m.ensureVisible()
}

func (m *SearchModel) pageSize() int {
	if m.height == 0 {
		return len(m.state.Results)
	}
	return max(1, (m.height-headerLines-footerLines)/linesPerItem)
}

func (m *SearchModel) ensureVisible() {
	page := m.pageSize()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+page {
		m.offset = m.selected - page + 1
	}
}

func errorReason(err error) string {
	var searchErr *search.Error
	if errors.As(err, &searchErr) {
		return searchErr.Reason()
	}
	return err.Error()
}

func (m SearchModel) View() string {
	var b strings.Builder

	width := m.width
	if width == 0 {
		width = defaultWidth
	}

	b.WriteString(titleStyle.Render("nfind") + " " + dimStyle.Render("news search") + "\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()) + "\n\n")

	switch m.state.Status {
	case StatusIdle:
		b.WriteString(dimStyle.Render("Start typing to search") + "\n")

	case StatusLoading:
		b.WriteString(m.spinner.View() + " " + dimStyle.Render("Searching...") + "\n")

	case StatusFailed:
		b.WriteString(errorStyle.Render(truncate("Error: "+m.state.Error, width-2)) + "\n")

	case StatusResults:
		if len(m.state.Results) == 0 {
			b.WriteString(dimStyle.Render("No results found") + "\n")
			break
		}

		end := min(m.offset+m.pageSize(), len(m.state.Results))
		for i := m.offset; i < end; i++ {
			marker := "  "
			if i == m.selected {
				marker = selectedStyle.Render("> ")
			}

			lines := wrapText(m.state.Results[i], max(10, width-4), linesPerItem)
			for j, line := range lines {
				prefix := "  "
				if j == 0 {
					prefix = marker
				}
				b.WriteString(prefix + resultStyle.Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ navigate  esc quit"))

	return b.String()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// wrapText breaks s into at most maxLines lines of width runes, preferring
// word boundaries, and marks truncation with an ellipsis.
func wrapText(s string, width, maxLines int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) == 0 {
		return nil
	}

	r := []rune(s)
	var lines []string
	for len(r) > 0 && len(lines) < maxLines {
		if len(r) <= width {
			lines = append(lines, string(r))
			r = nil
			break
		}

		breakAt := width
		for breakAt > width/2 && r[breakAt] != ' ' {
			breakAt--
		}
		if r[breakAt] != ' ' {
			breakAt = width
		}

		lines = append(lines, strings.TrimSpace(string(r[:breakAt])))
		r = []rune(strings.TrimSpace(string(r[breakAt:])))
	}

	if len(r) > 0 && len(lines) == maxLines {
		last := []rune(lines[maxLines-1])
		if len(last) > width-3 {
			last = last[:width-3]
		}
		lines[maxLines-1] = string(last) + "..."
	}

	return lines
}
