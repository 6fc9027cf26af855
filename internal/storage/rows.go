package storage

import (
	"encoding/json"
	"fmt"

	"paperpipe/internal/models"
)

// SectionRow is one denormalized paper_sections row ready for insert. The
// structured blobs are JSON text so the insert can cast them to jsonb.
type SectionRow struct {
	SectionTitle       string
	SectionDescription string
	Subsections        []string
	Summary            string
	KeyPoints          []string
	Methodologies      string
	Results            string
	FiguresAndTables   string
	Citations          []string
}

// BuildSectionRows joins expansions onto the outline's sections by title and
// returns rows in the outline's original section order. A section without a
// matching expansion degrades to empty fields. When expansions share a title,
// the last one wins for every section carrying that title; duplicate section
// titles therefore all receive the same expansion data.
func BuildSectionRows(outline models.Outline, expansions []models.SectionExpansion) ([]SectionRow, error) {
	byTitle := make(map[string]models.SectionExpansion, len(expansions))
	for _, e := range expansions {
		byTitle[e.SectionTitle] = e
	}

	rows := make([]SectionRow, 0, len(outline.Sections))
	for _, s := range outline.Sections {
		exp := byTitle[s.Title]
		methodologies, err := jsonArray(exp.Methodologies)
		if err != nil {
			return nil, fmt.Errorf("encode methodologies for %q: %w", s.Title, err)
		}
		results, err := jsonArray(exp.Results)
		if err != nil {
			return nil, fmt.Errorf("encode results for %q: %w", s.Title, err)
		}
		figures, err := jsonArray(exp.FiguresAndTables)
		if err != nil {
			return nil, fmt.Errorf("encode figures_and_tables for %q: %w", s.Title, err)
		}
		rows = append(rows, SectionRow{
			SectionTitle:       s.Title,
			SectionDescription: s.Description,
			Subsections:        emptyIfNil(s.Subsections),
			Summary:            exp.Summary,
			KeyPoints:          emptyIfNil(exp.KeyPoints),
			Methodologies:      methodologies,
			Results:            results,
			FiguresAndTables:   figures,
			Citations:          emptyIfNil(exp.Citations),
		})
	}
	return rows, nil
}

func jsonArray[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
