// Package vinparse turns free-form manual-entry text into structured VIN
// batches. Classification is a best-effort two-pass grammar: lines are first
// classified by length and alphabet, then trailing VIN runs are associated
// with the most recent order-number-like line.
package vinparse

import (
	"fmt"
	"regexp"
	"strings"

	"order-processing-backend/internal/models"
)

// nearVinPattern spots lines that were clearly meant to be a VIN but came up
// short: 12 to 16 characters, all drawn from the VIN alphabet. Best-effort —
// a long all-alphanumeric order number will trip it, which is the safer
// failure mode than silently treating a truncated VIN as an order number.
var nearVinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{12,16}$`)

// Batch is one parsed manual-entry submission. OrderNumber is advisory
// metadata, never a key; an empty value means "use the dealership default".
type Batch struct {
	OrderNumber string   `json:"order_number,omitempty"`
	VINs        []string `json:"vins"`
	ParseErrors []string `json:"parse_errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Empty reports whether the batch carries no VINs and no errors.
func (b Batch) Empty() bool {
	return len(b.VINs) == 0 && len(b.ParseErrors) == 0
}

type lineClass int

const (
	classBlank lineClass = iota
	classVIN
	classOrderNumber
	classInvalid
)

type classifiedLine struct {
	text  string
	class lineClass
}

// classify is the first pass: length and alphabet only, no context.
func classify(line string) classifiedLine {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return classifiedLine{class: classBlank}
	case models.ValidVIN(line):
		return classifiedLine{text: models.NormalizeVIN(line), class: classVIN}
	case len(line) == 17:
		// Right length, wrong alphabet. Almost certainly a mistyped VIN,
		// so it must not be misread as an order number.
		return classifiedLine{text: line, class: classInvalid}
	case nearVinPattern.MatchString(strings.ToUpper(line)):
		return classifiedLine{text: line, class: classInvalid}
	case len(line) < 17:
		return classifiedLine{text: line, class: classOrderNumber}
	default:
		return classifiedLine{text: line, class: classInvalid}
	}
}

// Parse produces a Batch from raw multi-line text. Empty input yields an
// empty batch with no error. Duplicate VINs are flagged as warnings but kept;
// the caller decides skip/overwrite policy downstream.
func Parse(raw string) Batch {
	var batch Batch

	lines := make([]classifiedLine, 0)
	for _, line := range strings.Split(raw, "\n") {
		lines = append(lines, classify(line))
	}

	// Second pass: associate each VIN run with the last order-number-like
	// line seen in its blank-line-delimited group.
	var (
		candidate string
		seen      = map[string]bool{}
	)
	for _, cl := range lines {
		switch cl.class {
		case classBlank:
			candidate = ""
		case classOrderNumber:
			candidate = cl.text
		case classInvalid:
			switch {
			case len(cl.text) == 17:
				batch.ParseErrors = append(batch.ParseErrors,
					fmt.Sprintf("ambiguous 17-character line is not a valid VIN: %q", cl.text))
			case len(cl.text) < 17:
				batch.ParseErrors = append(batch.ParseErrors,
					fmt.Sprintf("looks like an incomplete VIN (%d characters): %q", len(cl.text), cl.text))
			default:
				batch.ParseErrors = append(batch.ParseErrors,
					fmt.Sprintf("line too long to be a VIN: %q", cl.text))
			}
		case classVIN:
			if candidate != "" {
				if batch.OrderNumber == "" {
					batch.OrderNumber = candidate
				} else if candidate != batch.OrderNumber {
					batch.Warnings = append(batch.Warnings,
						fmt.Sprintf("multiple order numbers found, keeping %q and ignoring %q",
							batch.OrderNumber, candidate))
				}
			}
			if seen[cl.text] {
				batch.Warnings = append(batch.Warnings,
					fmt.Sprintf("duplicate VIN in batch: %s", cl.text))
			}
			seen[cl.text] = true
			batch.VINs = append(batch.VINs, cl.text)
		}
	}

	return batch
}
