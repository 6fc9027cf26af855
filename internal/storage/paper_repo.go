package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paperpipe/internal/models"
	"paperpipe/internal/util"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS papers (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    authors TEXT[],
    abstract TEXT,
    keywords TEXT[],
    pdf_url TEXT NOT NULL,
    outline JSONB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS paper_sections (
    id SERIAL PRIMARY KEY,
    paper_id INTEGER REFERENCES papers(id) ON DELETE CASCADE,
    section_title TEXT NOT NULL,
    section_description TEXT,
    subsections TEXT[],
    summary TEXT,
    key_points TEXT[],
    methodologies JSONB,
    results JSONB,
    figures_and_tables JSONB,
    citations TEXT[],
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_sections_paper_id ON paper_sections(paper_id)`,
}

// PersistResult summarizes one committed pipeline write.
type PersistResult struct {
	PaperID         int64  `json:"paper_id"`
	Title           string `json:"title"`
	SectionsWritten int    `json:"sections_written"`
	TotalAuthors    int    `json:"total_authors"`
	TotalKeywords   int    `json:"total_keywords"`
}

type PaperRecord struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Abstract  string    `json:"abstract"`
	Keywords  []string  `json:"keywords"`
	PDFURL    string    `json:"pdf_url"`
	CreatedAt time.Time `json:"created_at"`
}

type SectionRecord struct {
	ID                 int64           `json:"id"`
	PaperID            int64           `json:"paper_id"`
	SectionTitle       string          `json:"section_title"`
	SectionDescription string          `json:"section_description"`
	Subsections        []string        `json:"subsections"`
	Summary            string          `json:"summary"`
	KeyPoints          []string        `json:"key_points"`
	Methodologies      json.RawMessage `json:"methodologies"`
	Results            json.RawMessage `json:"results"`
	FiguresAndTables   json.RawMessage `json:"figures_and_tables"`
	Citations          []string        `json:"citations"`
	CreatedAt          time.Time       `json:"created_at"`
}

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

// EnsureSchema creates the two relations and the supporting index. Every
// statement is IF NOT EXISTS, so repeated calls are no-ops.
func (r *PaperRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", util.ErrPersistence, err)
		}
	}
	return nil
}

// InsertPaperWithSections writes one paper row and its section rows in a
// single transaction. On any failure nothing is committed.
func (r *PaperRepo) InsertPaperWithSections(ctx context.Context, outline models.Outline, expansions []models.SectionExpansion) (PersistResult, error) {
	rows, err := BuildSectionRows(outline, expansions)
	if err != nil {
		return PersistResult{}, fmt.Errorf("%w: %w", util.ErrPersistence, err)
	}
	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return PersistResult{}, fmt.Errorf("%w: encode outline: %w", util.ErrPersistence, err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return PersistResult{}, fmt.Errorf("%w: begin: %w", util.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var paperID int64
	err = tx.QueryRow(ctx, `
INSERT INTO papers (title, authors, abstract, keywords, pdf_url, outline)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
RETURNING id`,
		outline.Title, emptyIfNil(outline.Authors), outline.Abstract, emptyIfNil(outline.Keywords), outline.PDFURL, string(outlineJSON),
	).Scan(&paperID)
	if err != nil {
		return PersistResult{}, fmt.Errorf("%w: insert paper: %w", util.ErrPersistence, err)
	}

	for _, row := range rows {
		_, err = tx.Exec(ctx, `
INSERT INTO paper_sections
  (paper_id, section_title, section_description, subsections,
   summary, key_points, methodologies, results, figures_and_tables, citations)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10)`,
			paperID, row.SectionTitle, row.SectionDescription, row.Subsections,
			row.Summary, row.KeyPoints, row.Methodologies, row.Results, row.FiguresAndTables, row.Citations,
		)
		if err != nil {
			return PersistResult{}, fmt.Errorf("%w: insert section %q: %w", util.ErrPersistence, row.SectionTitle, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PersistResult{}, fmt.Errorf("%w: commit: %w", util.ErrPersistence, err)
	}
	return PersistResult{
		PaperID:         paperID,
		Title:           outline.Title,
		SectionsWritten: len(rows),
		TotalAuthors:    len(outline.Authors),
		TotalKeywords:   len(outline.Keywords),
	}, nil
}

func (r *PaperRepo) GetPaper(ctx context.Context, paperID int64) (PaperRecord, error) {
	var p PaperRecord
	err := r.db.Pool.QueryRow(ctx, `
SELECT id, title, COALESCE(authors, '{}'), COALESCE(abstract, ''), COALESCE(keywords, '{}'), pdf_url, created_at
FROM papers
WHERE id = $1`, paperID).
		Scan(&p.ID, &p.Title, &p.Authors, &p.Abstract, &p.Keywords, &p.PDFURL, &p.CreatedAt)
	if err != nil {
		return PaperRecord{}, fmt.Errorf("get paper %d: %w", paperID, err)
	}
	return p, nil
}

func (r *PaperRepo) ListSections(ctx context.Context, paperID int64) ([]SectionRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, paper_id, section_title, COALESCE(section_description, ''), COALESCE(subsections, '{}'),
       COALESCE(summary, ''), COALESCE(key_points, '{}'), COALESCE(methodologies, '[]'),
       COALESCE(results, '[]'), COALESCE(figures_and_tables, '[]'), COALESCE(citations, '{}'), created_at
FROM paper_sections
WHERE paper_id = $1
ORDER BY id`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list sections for paper %d: %w", paperID, err)
	}
	defer rows.Close()

	out := make([]SectionRecord, 0)
	for rows.Next() {
		var s SectionRecord
		var methodologies, results, figures []byte
		if err := rows.Scan(&s.ID, &s.PaperID, &s.SectionTitle, &s.SectionDescription, &s.Subsections,
			&s.Summary, &s.KeyPoints, &methodologies, &results, &figures, &s.Citations, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Methodologies = json.RawMessage(methodologies)
		s.Results = json.RawMessage(results)
		s.FiguresAndTables = json.RawMessage(figures)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}
