package catalog

import "errors"

var (
	// ErrEmptyTitleNorm rejects games whose identifying title
	// normalized to nothing; such rows could never be re-identified.
	ErrEmptyTitleNorm = errors.New("game has empty normalized title")

	// ErrAmbiguousGame flags an upsert whose key overlaps an existing
	// row without being identical to it: one side knows a platform or
	// year the other lacks, so merging could silently fuse two
	// different games.
	ErrAmbiguousGame = errors.New("ambiguous game identity")

	// ErrReviewBlocked rejects queueing a game for review while it
	// still holds a confirmed match.
	ErrReviewBlocked = errors.New("game already has a confirmed match")

	// ErrConfidenceRange rejects confidence values outside [0, 1].
	ErrConfidenceRange = errors.New("confidence outside [0, 1]")

	// ErrGameNotFound indicates a lookup by identifier found nothing.
	ErrGameNotFound = errors.New("game not found")

	// ErrRunNotFound indicates an unknown run identifier.
	ErrRunNotFound = errors.New("run not found")
)
