package util

import (
	"regexp"
	"sort"
	"strings"
)

// UnknownModel labels turns whose responding model was not recorded.
const UnknownModel = "unknown"

var datedModelPattern = regexp.MustCompile(`^claude-(.+)-(\d{8})$`)

// SimplifyModelName turns claude-{name}-{yyyymmdd} into {Name}.
// Anything else is returned unchanged, and an empty name becomes "unknown".
func SimplifyModelName(modelName string) string {
	if modelName == "" {
		return UnknownModel
	}
	if modelName == "<synthetic>" {
		return "synthetic"
	}

	matches := datedModelPattern.FindStringSubmatch(modelName)
	if len(matches) == 3 && matches[1] != "" {
		modelPart := matches[1]
		return strings.ToUpper(modelPart[:1]) + modelPart[1:]
	}

	return modelName
}

// ModelOrder returns the display rank of a model family (lower first).
func ModelOrder(modelName string) int {
	lower := strings.ToLower(SimplifyModelName(modelName))

	switch {
	case lower == "synthetic" || lower == UnknownModel:
		return 999
	case strings.Contains(lower, "opus"):
		return 1
	case strings.Contains(lower, "sonnet"):
		return 2
	case strings.Contains(lower, "haiku"):
		return 3
	default:
		return 100
	}
}

// SortModels sorts model names by family rank, then alphabetically.
func SortModels(models []string) []string {
	sorted := make([]string, len(models))
	copy(sorted, models)

	sort.SliceStable(sorted, func(i, j int) bool {
		orderI, orderJ := ModelOrder(sorted[i]), ModelOrder(sorted[j])
		if orderI != orderJ {
			return orderI < orderJ
		}
		return sorted[i] < sorted[j]
	})

	return sorted
}
