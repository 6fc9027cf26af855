package activities

import "paperpipe/internal/models"

type CreateOutlineInput struct {
	PDFURL string `json:"pdf_url"`
}

type CreateOutlineOutput struct {
	Outline models.Outline `json:"outline"`
	Pages   int            `json:"pages"`
}

type ExpandSectionInput struct {
	PDFURL      string `json:"pdf_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExpandSectionOutput struct {
	Expansion models.SectionExpansion `json:"expansion"`
}

type PersistPaperInput struct {
	Outline    models.Outline            `json:"outline"`
	Expansions []models.SectionExpansion `json:"expansions"`
}

type PersistPaperOutput struct {
	PaperID         int64  `json:"paper_id"`
	Status          string `json:"status"`
	Title           string `json:"title"`
	SectionsWritten int    `json:"sections_written"`
	TotalAuthors    int    `json:"total_authors"`
	TotalKeywords   int    `json:"total_keywords"`
}
