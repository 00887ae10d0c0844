// pkg/cleaner/operations.go
package cleaner

import (
	"strings"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// DelimiterReplacement stands in for a ComponentDelimiter found inside a list element
const DelimiterReplacement = "/"

// Cleaning operation kinds and reasons written to cleaned_on_ingress
const (
	OperationDelimiterReplacement = "delimiter_replacement"
	OperationWhitespaceTrim       = "whitespace_trim"

	ReasonDelimiterCollision = "delimiter_collision"
	ReasonSurroundingSpace   = "surrounding_whitespace"
)

// cleanComponent replaces the component delimiter inside one list element so
// the joined field splits back into the same number of elements
func cleanComponent(value, column, rowID string) (string, *model.CleaningOperation) {
	if !strings.Contains(value, model.ComponentDelimiter) {
		return value, nil
	}

	cleaned := strings.ReplaceAll(value, model.ComponentDelimiter, DelimiterReplacement)
	return cleaned, &model.CleaningOperation{
		ColumnName:        column,
		OriginalValue:     value,
		NewValue:          cleaned,
		RowIdentifier:     rowID,
		CleaningOperation: OperationDelimiterReplacement,
		CleaningReason:    ReasonDelimiterCollision,
	}
}

// cleanComponents applies cleanComponent to every element, keeping length and order
func cleanComponents(values []string, column, rowID string) ([]string, []model.CleaningOperation) {
	out := make([]string, len(values))
	var ops []model.CleaningOperation
	for i, v := range values {
		cleaned, op := cleanComponent(v, column, rowID)
		out[i] = cleaned
		if op != nil {
			ops = append(ops, *op)
		}
	}
	return out, ops
}

// trimValue strips surrounding whitespace from a scalar attribute
func trimValue(value, column, rowID string) (string, *model.CleaningOperation) {
	trimmed := strings.TrimSpace(value)
	if trimmed == value {
		return value, nil
	}

	return trimmed, &model.CleaningOperation{
		ColumnName:        column,
		OriginalValue:     value,
		NewValue:          trimmed,
		RowIdentifier:     rowID,
		CleaningOperation: OperationWhitespaceTrim,
		CleaningReason:    ReasonSurroundingSpace,
	}
}

// scalarFields lists the single-valued attributes of a record with their column names
func scalarFields(rec *model.RawTrialRecord) []struct {
	column string
	value  *string
} {
	return []struct {
		column string
		value  *string
	}{
		{"nctId", &rec.NCTID},
		{"briefTitle", &rec.BriefTitle},
		{"officialTitle", &rec.OfficialTitle},
		{"overallStatus", &rec.OverallStatus},
		{"studyFirstPostDate", &rec.StudyFirstPostDate},
		{"lastUpdatePostDate", &rec.LastUpdatePostDate},
		{"studyType", &rec.StudyType},
		{"sex", &rec.Sex},
		{"minimumAge", &rec.MinimumAge},
		{"maximumAge", &rec.MaximumAge},
	}
}
