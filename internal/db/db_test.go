package db

import (
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestDatabaseOpen(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.EntryCount()
	if err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty database, got %d entries", count)
	}
}

func TestReplaceEntries(t *testing.T) {
	db := setupTestDB(t)

	if err := db.ReplaceEntries("news.csv", 1000, 2000, []string{"one", "two"}); err != nil {
		t.Fatalf("failed to replace entries: %v", err)
	}

	ds, err := db.GetDataset("news.csv")
	if err != nil {
		t.Fatalf("failed to get dataset: %v", err)
	}
	if ds == nil {
		t.Fatal("expected dataset, got nil")
	}
	if ds.ModifiedAt != 1000 || ds.IndexedAt != 2000 || ds.EntryCount != 2 {
		t.Errorf("unexpected dataset %+v", ds)
	}

	// Reload replaces rather than appends
	if err := db.ReplaceEntries("news.csv", 1500, 2500, []string{"three"}); err != nil {
		t.Fatalf("failed to replace entries: %v", err)
	}

	count, _ := db.EntryCount()
	if count != 1 {
		t.Errorf("expected 1 entry after reload, got %d", count)
	}

	ds, _ = db.GetDataset("news.csv")
	if ds.ModifiedAt != 1500 {
		t.Errorf("expected modified_at 1500, got %d", ds.ModifiedAt)
	}
}

func TestReplaceEntriesSwitchesDataset(t *testing.T) {
	db := setupTestDB(t)

	db.ReplaceEntries("old.csv", 1, 1, []string{"old entry"})
	db.ReplaceEntries("new.csv", 2, 2, []string{"new entry"})

	old, err := db.GetDataset("old.csv")
	if err != nil {
		t.Fatalf("failed to get dataset: %v", err)
	}
	if old != nil {
		t.Error("expected old dataset to be dropped")
	}

	results, _ := db.Search("entry", 10)
	if !reflect.DeepEqual(results, []string{"new entry"}) {
		t.Errorf("expected only new entries, got %v", results)
	}
}

func TestGetDatasetMissing(t *testing.T) {
	db := setupTestDB(t)

	ds, err := db.GetDataset("nope.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds != nil {
		t.Errorf("expected nil dataset, got %+v", ds)
	}
}

func TestSearchCaseInsensitiveInOrder(t *testing.T) {
	db := setupTestDB(t)

	entries := []string{
		"neutral Cats are popular",
		"positive Dogs win the day",
		"negative CAT food prices rise",
		"neutral concatenate strings",
	}
	if err := db.ReplaceEntries("news.csv", 1, 1, entries); err != nil {
		t.Fatalf("failed to replace entries: %v", err)
	}

	results, err := db.Search("cAt", 15)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	expected := []string{entries[0], entries[2], entries[3]}
	if !reflect.DeepEqual(results, expected) {
		t.Errorf("expected %v, got %v", expected, results)
	}
}

func TestSearchLimit(t *testing.T) {
	db := setupTestDB(t)

	var entries []string
	for i := 0; i < 40; i++ {
		entries = append(entries, fmt.Sprintf("market update %d", i))
	}
	db.ReplaceEntries("news.csv", 1, 1, entries)

	results, err := db.Search("market", 15)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 15 {
		t.Fatalf("expected 15 results, got %d", len(results))
	}
	if results[0] != "market update 0" || results[14] != "market update 14" {
		t.Errorf("expected first 15 entries in order, got %v", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	db := setupTestDB(t)
	db.ReplaceEntries("news.csv", 1, 1, []string{"anything"})

	results, err := db.Search("", 15)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", results)
	}
}

func TestSearchSpecialCharacters(t *testing.T) {
	db := setupTestDB(t)
	db.ReplaceEntries("news.csv", 1, 1, []string{"growth of 50% expected", "growth of 50 units"})

	results, _ := db.Search("50%", 15)
	if !reflect.DeepEqual(results, []string{"growth of 50% expected"}) {
		t.Errorf("expected literal match on '%%', got %v", results)
	}
}
