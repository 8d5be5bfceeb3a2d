// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists article records and builds a retrieval index.
// Implements: prd006-store (R1-R4);
//
//	docs/ARCHITECTURE § Corpus Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/telescan/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "corpus.db"
)

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the corpus SQLite database at
// DataDir/index/corpus.db. It creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			identifier TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			publication_year TEXT,
			study_design TEXT,
			data_source TEXT,
			population TEXT,
			sample_size INTEGER,
			study_duration TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS measures (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL REFERENCES articles(identifier),
			description TEXT NOT NULL,
			categories TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_measures_article_id ON measures(article_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			article_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='measures_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE measures_fts USING fts5(description, content=measures, content_rowid=rowid)`,
			`CREATE TRIGGER measures_ai AFTER INSERT ON measures BEGIN
				INSERT INTO measures_fts(rowid, description) VALUES (new.rowid, new.description);
			END`,
			`CREATE TRIGGER measures_ad AFTER DELETE ON measures BEGIN
				INSERT INTO measures_fts(measures_fts, rowid, description) VALUES('delete', old.rowid, old.description);
			END`,
			`CREATE TRIGGER measures_au AFTER UPDATE ON measures BEGIN
				INSERT INTO measures_fts(measures_fts, rowid, description) VALUES('delete', old.rowid, old.description);
				INSERT INTO measures_fts(rowid, description) VALUES (new.rowid, new.description);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a corpus indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads article-record YAML files from recordsDir and populates the
// database. It detects new, changed, and unchanged files for incremental
// updates.
func (s *Store) Ingest(ctx context.Context, recordsDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(recordsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading records directory %s: %w", recordsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		stem := strings.TrimSuffix(entry.Name(), ".yaml")
		filePath := filepath.Join(recordsDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Unchanged files are skipped on re-ingest.
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE article_id = ?`, stem,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", stem)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}

		var record types.ArticleRecord
		if err := yaml.Unmarshal(data, &record); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", stem, err)
			summary.Failed++
			continue
		}
		if record.Identifier == "" {
			record.Identifier = stem
		}

		if err := s.upsertRecord(ctx, record, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d measures)\n", stem, len(record.Measures))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d measures)\n", stem, len(record.Measures))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) upsertRecord(ctx context.Context, record types.ArticleRecord, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old measures if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM measures WHERE article_id = ?`, record.Identifier); err != nil {
			return fmt.Errorf("deleting old measures: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO articles (identifier, title, authors, publication_year, study_design,
			data_source, population, sample_size, study_duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET
			title=excluded.title, authors=excluded.authors,
			publication_year=excluded.publication_year,
			study_design=excluded.study_design, data_source=excluded.data_source,
			population=excluded.population, sample_size=excluded.sample_size,
			study_duration=excluded.study_duration`,
		record.Identifier, record.Title, record.Authors, record.PublicationYear,
		record.StudyDesign, record.DataSource, strings.Join(record.Population, ", "),
		record.SampleSize, record.StudyDuration,
	)
	if err != nil {
		return fmt.Errorf("upserting article: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measures (article_id, description, categories) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range record.Measures {
		categoriesJSON, _ := json.Marshal(m.Categories)
		if _, err := stmt.ExecContext(ctx, record.Identifier, m.Description, string(categoriesJSON)); err != nil {
			return fmt.Errorf("inserting measure: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (article_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(article_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		record.Identifier, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
