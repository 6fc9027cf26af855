package util

import (
	"errors"
	"strings"
)

var (
	ErrRetrieval   = errors.New("document retrieval failed")
	ErrExtraction  = errors.New("extraction failed")
	ErrPersistence = errors.New("persistence failed")
)

const (
	StageRetrieval   = "retrieval"
	StageExtraction  = "extraction"
	StagePersistence = "persistence"
)

// FailureStage maps an error to the pipeline stage that produced it. Errors
// that crossed an activity boundary arrive flattened to their message, so
// string matching backs up errors.Is.
func FailureStage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrRetrieval):
		return StageRetrieval
	case errors.Is(err, ErrExtraction):
		return StageExtraction
	case errors.Is(err, ErrPersistence):
		return StagePersistence
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, ErrRetrieval.Error()):
		return StageRetrieval
	case strings.Contains(e, ErrExtraction.Error()):
		return StageExtraction
	case strings.Contains(e, ErrPersistence.Error()):
		return StagePersistence
	default:
		return ""
	}
}
