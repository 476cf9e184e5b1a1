package logic

import "github.com/scoutcentral/analytics-api/internal/models"

// excludeStorageThreshold controls rule construction: callers excluding
// at least this fraction of the universe get an include-list rule,
// smaller exclusions store the excluded items directly.
const excludeStorageThreshold = 0.30

// ResolveFilter converts a data-source rule into a concrete filter
// against the universe snapshot, or nil when no filtering is necessary.
// The result is semantically equivalent to "item passes iff the rule
// says so", represented with the smaller of the two membership lists.
// Malformed rules (unknown mode) resolve to "include everything"; the
// resolver never fails.
func ResolveFilter[T comparable](rule models.Rule[T], universe []T) *models.Filter[T] {
	switch rule.Mode {
	case models.ModeInclude, models.ModeExclude:
	default:
		// Malformed or zero-valued rules filter nothing.
		return nil
	}

	if rule.Mode == models.ModeExclude && len(rule.Items) == 0 {
		return nil
	}

	ruled := make(map[T]struct{}, len(rule.Items))
	for _, item := range rule.Items {
		ruled[item] = struct{}{}
	}

	// Partition the universe preserving snapshot order so resolved
	// filters are deterministic.
	var in, out []T
	for _, item := range universe {
		_, listed := ruled[item]
		if listed == (rule.Mode == models.ModeInclude) {
			in = append(in, item)
		} else {
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		// Everything passes; no filter needed.
		return nil
	}
	if len(in) <= len(out) {
		if in == nil {
			in = []T{}
		}
		return &models.Filter[T]{In: in}
	}
	return &models.Filter[T]{NotIn: out}
}

// NewRule builds the minimal rule representation for "use exactly these
// items". When the caller excludes at least 30% of the universe the kept
// items are stored as an include list; smaller exclusions store the
// excluded complement.
func NewRule[T comparable](keep []T, universe []T) models.Rule[T] {
	kept := make(map[T]struct{}, len(keep))
	for _, item := range keep {
		kept[item] = struct{}{}
	}

	var excluded []T
	for _, item := range universe {
		if _, ok := kept[item]; !ok {
			excluded = append(excluded, item)
		}
	}

	if len(excluded) == 0 {
		return models.Rule[T]{Mode: models.ModeExclude, Items: []T{}}
	}
	if len(universe) > 0 && float64(len(excluded))/float64(len(universe)) >= excludeStorageThreshold {
		included := keep
		if included == nil {
			included = []T{}
		}
		return models.Rule[T]{Mode: models.ModeInclude, Items: included}
	}
	return models.Rule[T]{Mode: models.ModeExclude, Items: excluded}
}
