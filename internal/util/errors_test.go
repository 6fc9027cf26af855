package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailureStageWrapped(t *testing.T) {
	require.Equal(t, StageRetrieval, FailureStage(fmt.Errorf("%w: fetch x: status 404", ErrRetrieval)))
	require.Equal(t, StageExtraction, FailureStage(fmt.Errorf("%w: generate error 500", ErrExtraction)))
	require.Equal(t, StagePersistence, FailureStage(fmt.Errorf("%w: insert paper", ErrPersistence)))
	require.Equal(t, "", FailureStage(nil))
	require.Equal(t, "", FailureStage(errors.New("unrelated")))
}

// Errors returned across an activity boundary lose their wrap chain and keep
// only the message, so classification must also work on flattened text.
func TestFailureStageFlattened(t *testing.T) {
	flattened := errors.New("activity error (type: CreateOutlineActivity): document retrieval failed: fetch x: status 404")
	require.Equal(t, StageRetrieval, FailureStage(flattened))
}
