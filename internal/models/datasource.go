package models

// DataSourceMode selects how a rule's item list is interpreted.
type DataSourceMode string

const (
	ModeInclude DataSourceMode = "include"
	ModeExclude DataSourceMode = "exclude"
)

// Rule limits which teams' or tournaments' observations may feed a
// computation. The zero value (exclude nothing) means "use everything".
type Rule[T comparable] struct {
	Mode  DataSourceMode `json:"mode"`
	Items []T            `json:"items"`
}

// IsNoop reports whether the rule filters nothing.
func (r Rule[T]) IsNoop() bool {
	return (r.Mode == ModeExclude || r.Mode == "") && len(r.Items) == 0
}

// Filter is a concrete membership test resolved against a universe
// snapshot. Exactly one of In or NotIn is set.
type Filter[T comparable] struct {
	In    []T `json:"in,omitempty"`
	NotIn []T `json:"not_in,omitempty"`
}

// Allows reports whether the item passes the filter. A nil filter allows
// everything.
func (f *Filter[T]) Allows(item T) bool {
	if f == nil {
		return true
	}
	if f.NotIn != nil {
		for _, v := range f.NotIn {
			if v == item {
				return false
			}
		}
		return true
	}
	for _, v := range f.In {
		if v == item {
			return true
		}
	}
	return false
}
