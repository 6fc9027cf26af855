package activities

import (
	"context"
	"time"

	"paperpipe/internal/config"
	"paperpipe/internal/document"
	"paperpipe/internal/gemini"
	"paperpipe/internal/storage"
)

type Activities struct {
	cfg       config.Config
	fetcher   *document.Fetcher
	extractor *gemini.Client
	paperRepo *storage.PaperRepo
}

func New(cfg config.Config, db *storage.DB) *Activities {
	return &Activities{
		cfg:       cfg,
		fetcher:   document.NewFetcher(time.Duration(cfg.FetchTimeoutSecs) * time.Second),
		extractor: gemini.NewClient(cfg),
		paperRepo: storage.NewPaperRepo(db),
	}
}

// CreateOutlineActivity downloads the PDF and asks the backend for the full
// structured outline. The source locator is stamped onto the outline so
// downstream stages can re-fetch the document independently.
func (a *Activities) CreateOutlineActivity(ctx context.Context, in CreateOutlineInput) (CreateOutlineOutput, error) {
	doc, err := a.fetcher.Fetch(ctx, in.PDFURL)
	if err != nil {
		return CreateOutlineOutput{}, err
	}
	outline, err := a.extractor.ExtractOutline(ctx, doc.Data)
	if err != nil {
		return CreateOutlineOutput{}, err
	}
	outline.PDFURL = in.PDFURL
	return CreateOutlineOutput{Outline: outline, Pages: doc.Pages}, nil
}

// ExpandSectionActivity re-fetches the PDF and extracts the detail for one
// section. It depends only on its inputs, so any number of instances can run
// concurrently for different sections.
func (a *Activities) ExpandSectionActivity(ctx context.Context, in ExpandSectionInput) (ExpandSectionOutput, error) {
	doc, err := a.fetcher.Fetch(ctx, in.PDFURL)
	if err != nil {
		return ExpandSectionOutput{}, err
	}
	expansion, err := a.extractor.ExpandSection(ctx, doc.Data, in.Title, in.Description)
	if err != nil {
		return ExpandSectionOutput{}, err
	}
	return ExpandSectionOutput{Expansion: expansion}, nil
}

// PersistPaperActivity writes the outline and its expansions to Postgres in
// one transaction and returns the run summary.
func (a *Activities) PersistPaperActivity(ctx context.Context, in PersistPaperInput) (PersistPaperOutput, error) {
	if err := a.paperRepo.EnsureSchema(ctx); err != nil {
		return PersistPaperOutput{}, err
	}
	res, err := a.paperRepo.InsertPaperWithSections(ctx, in.Outline, in.Expansions)
	if err != nil {
		return PersistPaperOutput{}, err
	}
	return PersistPaperOutput{
		PaperID:         res.PaperID,
		Status:          "success",
		Title:           res.Title,
		SectionsWritten: res.SectionsWritten,
		TotalAuthors:    res.TotalAuthors,
		TotalKeywords:   res.TotalKeywords,
	}, nil
}
