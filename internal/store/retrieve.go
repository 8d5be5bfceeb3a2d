// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meshintel/telescan/pkg/types"
)

// QueryOptions holds parameters for measure queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over measure sentences.
	Query string

	// Category filters by measure-category label.
	Category string

	// ArticleID filters by article identifier.
	ArticleID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.ArticleID == ""
}

// MeasureHit is one matching measure sentence with its article metadata.
type MeasureHit struct {
	ArticleID    string   `json:"article_id" yaml:"article_id"`
	ArticleTitle string   `json:"article_title" yaml:"article_title"`
	Description  string   `json:"description" yaml:"description"`
	Categories   []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// SearchMeasures queries the corpus with optional full-text search and
// structured filters. Results are ranked by relevance for full-text queries
// or sorted by article and insertion order otherwise.
func (s *Store) SearchMeasures(ctx context.Context, opts QueryOptions) ([]MeasureHit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT m.article_id, a.title, m.description, m.categories
			FROM measures_fts
			JOIN measures m ON m.rowid = measures_fts.rowid
			LEFT JOIN articles a ON m.article_id = a.identifier
			WHERE measures_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT m.article_id, a.title, m.description, m.categories
			FROM measures m
			LEFT JOIN articles a ON m.article_id = a.identifier
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(m.categories) WHERE value = ?)`)
		args = append(args, opts.Category)
	}

	if opts.ArticleID != "" {
		qb.WriteString(` AND m.article_id = ?`)
		args = append(args, opts.ArticleID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY measures_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY m.article_id, m.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var hits []MeasureHit
	for rows.Next() {
		var (
			hit            MeasureHit
			title          sql.NullString
			categoriesJSON sql.NullString
		)
		if err := rows.Scan(&hit.ArticleID, &title, &hit.Description, &categoriesJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if title.Valid {
			hit.ArticleTitle = title.String
		}
		if categoriesJSON.Valid {
			json.Unmarshal([]byte(categoriesJSON.String), &hit.Categories)
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// LoadRecords rebuilds the full set of article records from the database,
// sorted by identifier. The reporting stage can run off the store without
// re-reading the YAML tree.
func (s *Store) LoadRecords(ctx context.Context) ([]types.ArticleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, title, authors, publication_year, study_design,
			data_source, population, sample_size, study_duration
		FROM articles ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var records []types.ArticleRecord
	for rows.Next() {
		var (
			r          types.ArticleRecord
			population string
		)
		if err := rows.Scan(
			&r.Identifier, &r.Title, &r.Authors, &r.PublicationYear,
			&r.StudyDesign, &r.DataSource, &population, &r.SampleSize, &r.StudyDuration,
		); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if population != "" {
			r.Population = strings.Split(population, ", ")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		measures, err := s.loadMeasures(ctx, records[i].Identifier)
		if err != nil {
			return nil, err
		}
		records[i].Measures = measures
	}

	return records, nil
}

func (s *Store) loadMeasures(ctx context.Context, articleID string) ([]types.MeasureCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, categories FROM measures WHERE article_id = ? ORDER BY rowid`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying measures for %s: %w", articleID, err)
	}
	defer rows.Close()

	var measures []types.MeasureCandidate
	for rows.Next() {
		var (
			m              types.MeasureCandidate
			categoriesJSON sql.NullString
		)
		if err := rows.Scan(&m.Description, &categoriesJSON); err != nil {
			return nil, fmt.Errorf("scanning measure: %w", err)
		}
		if categoriesJSON.Valid {
			json.Unmarshal([]byte(categoriesJSON.String), &m.Categories)
		}
		measures = append(measures, m)
	}
	return measures, rows.Err()
}
