// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Format selects the final output of a conversion.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatODT      Format = "odt"
	FormatPDF      Format = "pdf"
)

// DefaultFormat is used when convert is called without --format.
const DefaultFormat = FormatODT

// FormatInfo pairs a format code with its human-readable description.
type FormatInfo struct {
	Format      Format `json:"format" yaml:"format"`
	Description string `json:"description" yaml:"description"`
}

// supportedFormats is ordered by how far the pipeline runs for each format.
var supportedFormats = []FormatInfo{
	{FormatMarkdown, "Markdown syntax"},
	{FormatODT, "OpenDocument"},
	{FormatPDF, "PDF (Portable Document Format)"},
}

// SupportedFormats returns the supported output formats in pipeline order.
func SupportedFormats() []FormatInfo {
	out := make([]FormatInfo, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// ParseFormat validates s against the supported format codes.
func ParseFormat(s string) (Format, error) {
	for _, f := range supportedFormats {
		if string(f.Format) == s {
			return f.Format, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q: choose one of md, odt, pdf", s)
}

// Needs reports whether producing f requires first producing step.
// Every format needs md; pdf also needs odt.
func (f Format) Needs(step Format) bool {
	return f.rank() >= step.rank()
}

func (f Format) rank() int {
	for i, info := range supportedFormats {
		if info.Format == f {
			return i
		}
	}
	return -1
}
