package workflows

import (
	"time"

	"paperpipe/internal/activities"
	"paperpipe/internal/models"
	"paperpipe/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetRunProgress = "GetRunProgress"

const (
	stageOutlining  = "outlining"
	stageExpanding  = "expanding"
	stagePersisting = "persisting"
	stageDone       = "done"
)

// PaperOutlineWorkflow runs the three pipeline stages in strict sequence:
// outline extraction, parallel per-section expansion, one transactional
// write. No stage retries internally; the first failure aborts the run.
func PaperOutlineWorkflow(ctx workflow.Context, input PaperOutlineInput) (activities.PersistPaperOutput, error) {
	progress := RunProgress{
		PDFURL:       input.PDFURL,
		CurrentStage: stageOutlining,
		Status:       "processing",
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetRunProgress, func() (RunProgress, error) {
		return progress, nil
	}); err != nil {
		return activities.PersistPaperOutput{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var outlineOut activities.CreateOutlineOutput
	if err := workflow.ExecuteActivity(ctx, "CreateOutlineActivity", activities.CreateOutlineInput{PDFURL: input.PDFURL}).Get(ctx, &outlineOut); err != nil {
		markFailed(&progress, err)
		return activities.PersistPaperOutput{}, err
	}
	outline := outlineOut.Outline
	progress.Title = outline.Title
	progress.SectionsTotal = len(outline.Sections)
	progress.CurrentStage = stageExpanding

	// Fan-out: dispatch every expansion before joining. Futures are awaited
	// in dispatch order, so the collected expansions correspond to the
	// outline's section order.
	futures := make([]workflow.Future, 0, len(outline.Sections))
	for _, s := range outline.Sections {
		futures = append(futures, workflow.ExecuteActivity(ctx, "ExpandSectionActivity", activities.ExpandSectionInput{
			PDFURL:      outline.PDFURL,
			Title:       s.Title,
			Description: s.Description,
		}))
	}
	expansions := make([]models.SectionExpansion, 0, len(futures))
	var firstErr error
	for _, f := range futures {
		var out activities.ExpandSectionOutput
		if err := f.Get(ctx, &out); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expansions = append(expansions, out.Expansion)
		progress.SectionsExpanded++
	}
	if firstErr != nil {
		markFailed(&progress, firstErr)
		return activities.PersistPaperOutput{}, firstErr
	}

	progress.CurrentStage = stagePersisting
	var persistOut activities.PersistPaperOutput
	if err := workflow.ExecuteActivity(ctx, "PersistPaperActivity", activities.PersistPaperInput{
		Outline:    outline,
		Expansions: expansions,
	}).Get(ctx, &persistOut); err != nil {
		markFailed(&progress, err)
		return activities.PersistPaperOutput{}, err
	}

	progress.CurrentStage = stageDone
	progress.Status = "completed"
	return persistOut, nil
}

func markFailed(progress *RunProgress, err error) {
	progress.Status = "failed"
	progress.FailStage = util.FailureStage(err)
	progress.FailReason = err.Error()
}
