package export

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Validation errors surfaced before any network activity.
var (
	ErrEmptySelection = errors.New("no messages to export in the selected period")
	ErrNoCode         = errors.New("failed to generate an export code")
)

// Fatal upload stage errors.
var (
	ErrMetadataWrite = errors.New("failed to write export metadata")
	ErrPayloadWrite  = errors.New("failed to write export payload")
)

// AudioSizeError is returned when the selected audio parts exceed the
// hard upload limit. Checked before any upload begins.
type AudioSizeError struct {
	Total int64
	Limit int64
}

func (e *AudioSizeError) Error() string {
	return fmt.Sprintf("selected audio exceeds %s (%s selected)",
		humanize.IBytes(uint64(e.Limit)), humanize.IBytes(uint64(e.Total)))
}

// ExportError wraps any fatal failure of the upload state machine with
// the stage that failed. Partial media failures are never fatal and are
// recorded inline on the media parts instead.
type ExportError struct {
	Stage string // "metadata" or "payload"
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s write: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
