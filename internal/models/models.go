package models

import (
	"fmt"
	"strings"

	"paperpipe/internal/util"
)

// Outline is the top-level structured extraction of a paper. Section order
// follows document order and is preserved through persistence.
type Outline struct {
	Title    string    `json:"title"`
	Authors  []string  `json:"authors,omitempty"`
	Abstract string    `json:"abstract,omitempty"`
	Sections []Section `json:"sections"`
	Keywords []string  `json:"keywords,omitempty"`
	PDFURL   string    `json:"pdf_url,omitempty"`
}

// Section is the shallow outline-level view of one paper division.
// Titles are the join key for expansions, so they should be unique
// within an outline.
type Section struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Subsections []string `json:"subsections,omitempty"`
}

type Methodology struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Result struct {
	Finding      string `json:"finding"`
	Significance string `json:"significance"`
}

type FigureOrTable struct {
	Type        string `json:"type"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// SectionExpansion is the detailed extraction for one section, produced by an
// independent backend call and joined back to the outline by SectionTitle.
type SectionExpansion struct {
	SectionTitle     string          `json:"section_title"`
	Summary          string          `json:"summary"`
	KeyPoints        []string        `json:"key_points"`
	Methodologies    []Methodology   `json:"methodologies,omitempty"`
	Results          []Result        `json:"results,omitempty"`
	FiguresAndTables []FigureOrTable `json:"figures_and_tables,omitempty"`
	Citations        []string        `json:"citations,omitempty"`
}

func (o Outline) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("%w: outline title is required", util.ErrExtraction)
	}
	if len(o.Sections) == 0 {
		return fmt.Errorf("%w: outline has no sections", util.ErrExtraction)
	}
	for i, s := range o.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: section %d has no title", util.ErrExtraction, i)
		}
	}
	return nil
}

func (e SectionExpansion) Validate() error {
	if strings.TrimSpace(e.SectionTitle) == "" {
		return fmt.Errorf("%w: expansion section_title is required", util.ErrExtraction)
	}
	if strings.TrimSpace(e.Summary) == "" {
		return fmt.Errorf("%w: expansion summary is required for %q", util.ErrExtraction, e.SectionTitle)
	}
	return nil
}
