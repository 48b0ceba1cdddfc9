// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage identifies one step of the conversion pipeline. Errors carry the
// stage that produced them so the CLI can report where a run stopped.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageExport  Stage = "export"
	StageRepair  Stage = "repair"
	StageConvert Stage = "convert"
	StagePDF     Stage = "pdf"
)

// Description returns the user-facing name of the stage.
func (s Stage) Description() string {
	switch s {
	case StagePrepare:
		return "environment preparation"
	case StageExport:
		return "Markdown export"
	case StageRepair:
		return "Markdown repair"
	case StageConvert:
		return "ODT conversion"
	case StagePDF:
		return "PDF generation"
	default:
		return string(s)
	}
}

// ConversionStatus is the final state of a recorded conversion.
type ConversionStatus string

const (
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// ConversionRecord is one entry in the conversion history.
type ConversionRecord struct {
	ID int64 `json:"id" yaml:"id"`

	// Source is the absolute path of the mind-map document.
	Source string `json:"source" yaml:"source"`

	Format         Format `json:"format" yaml:"format"`
	NumberSections bool   `json:"number_sections" yaml:"number_sections"`

	// Outputs lists the files produced, in pipeline order.
	Outputs []string `json:"outputs" yaml:"outputs"`

	Status ConversionStatus `json:"status" yaml:"status"`

	// FailedStage and Error are set only when Status is ConversionFailed.
	FailedStage Stage  `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the conversion ran.
func (r ConversionRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
