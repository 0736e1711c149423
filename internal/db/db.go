package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// Dataset records the source file an entry set was loaded from.
type Dataset struct {
	ID         int64
	Path       string
	ModifiedAt int64
	IndexedAt  int64
	EntryCount int
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS datasets (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			modified_at INTEGER,
			indexed_at INTEGER,
			entry_count INTEGER
		);

		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY,
			dataset_id INTEGER REFERENCES datasets(id) ON DELETE CASCADE,
			line INTEGER NOT NULL,
			text TEXT NOT NULL,
			folded TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entries_dataset_line ON entries(dataset_id, line);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) GetDataset(path string) (*Dataset, error) {
	var ds Dataset
	err := db.conn.QueryRow(
		"SELECT id, path, modified_at, indexed_at, entry_count FROM datasets WHERE path = ?",
		path,
	).Scan(&ds.ID, &ds.Path, &ds.ModifiedAt, &ds.IndexedAt, &ds.EntryCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// ReplaceEntries swaps the entries of the dataset at path for entries in one
// transaction. Entries of other datasets are dropped too: the store serves
// exactly one dataset at a time.
func (db *DB) ReplaceEntries(path string, modifiedAt, indexedAt int64, entries []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM datasets WHERE path != ?", path); err != nil {
		return fmt.Errorf("failed to clear datasets: %w", err)
	}

	var datasetID int64
	err = tx.QueryRow(`
		INSERT INTO datasets (path, modified_at, indexed_at, entry_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at,
			entry_count = excluded.entry_count
		RETURNING id
	`, path, modifiedAt, indexedAt, len(entries)).Scan(&datasetID)
	if err != nil {
		return fmt.Errorf("failed to upsert dataset: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO entries (dataset_id, line, text, folded) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck

	for i, text := range entries {
		if _, err := stmt.Exec(datasetID, i, text, strings.ToLower(text)); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Search returns up to limit entries containing query, ignoring case, in
// dataset order. An empty query matches nothing.
func (db *DB) Search(query string, limit int) ([]string, error) {
	if query == "" || limit <= 0 {
		return []string{}, nil
	}

	rows, err := db.conn.Query(`
		SELECT text FROM entries
		WHERE instr(folded, ?) > 0
		ORDER BY dataset_id, line
		LIMIT ?
	`, strings.ToLower(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	results := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		results = append(results, text)
	}

	return results, rows.Err()
}

func (db *DB) EntryCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}
