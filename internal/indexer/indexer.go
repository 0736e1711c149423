package indexer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mgomes/newsfind/internal/db"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// Indexer loads a CSV dataset into the entry store.
type Indexer struct {
	db   *db.DB
	path string
	log  logrus.FieldLogger
}

type Progress struct {
	Entries int
	Message string
}

type ProgressFunc func(Progress)

func New(database *db.DB, dataFile string, log logrus.FieldLogger) *Indexer {
	return &Indexer{
		db:   database,
		path: dataFile,
		log:  log,
	}
}

func (idx *Indexer) Path() string {
	return idx.path
}

// Index loads the dataset unless the store already holds a copy taken from
// the same file version. fullReindex forces a reload.
func (idx *Indexer) Index(ctx context.Context, fullReindex bool, progress ProgressFunc) error {
	info, err := os.Stat(idx.path)
	if err != nil {
		return fmt.Errorf("failed to stat dataset: %w", err)
	}

	existing, err := idx.db.GetDataset(idx.path)
	if err != nil {
		return fmt.Errorf("failed to get existing dataset: %w", err)
	}

	if !needsIndexing(info, fullReindex, existing) {
		if progress != nil {
			progress(Progress{Entries: existing.EntryCount, Message: "Index is up to date"})
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(idx.path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck

	entries, err := parseCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", idx.path, err)
	}

	if err := idx.db.ReplaceEntries(idx.path, info.ModTime().UnixNano(), time.Now().Unix(), entries); err != nil {
		return fmt.Errorf("failed to store entries: %w", err)
	}

	idx.log.WithFields(logrus.Fields{"path": idx.path, "entries": len(entries)}).Info("dataset loaded")
	if progress != nil {
		progress(Progress{Entries: len(entries), Message: fmt.Sprintf("Loaded %d entries", len(entries))})
	}

	return nil
}

func needsIndexing(info os.FileInfo, fullReindex bool, ds *db.Dataset) bool {
	if fullReindex || ds == nil {
		return true
	}
	return info.ModTime().UnixNano() != ds.ModifiedAt
}

// parseCSV reads Latin-1 encoded CSV and returns one entry per non-empty
// row, its columns joined by a single space.
func parseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var entries []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		entries = append(entries, strings.Join(row, " "))
	}

	return entries, nil
}
