package selection

import (
	"fmt"
	"strings"
)

// Mode identifies how a Policy picks tables.
type Mode int

const (
	All Mode = iota
	Include
	Exclude
)

func (m Mode) String() string {
	switch m {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "all"
	}
}

// Policy decides which tables take part in a run.
type Policy struct {
	mode  Mode
	names []string
}

// New builds a Policy from include and exclude lists. At most one of them may
// be non-empty; both empty selects every table.
func New(include, exclude []string) (Policy, error) {
	switch {
	case len(include) > 0 && len(exclude) > 0:
		return Policy{}, &InvalidPolicyError{Include: include, Exclude: exclude}
	case len(include) > 0:
		return Policy{mode: Include, names: append([]string(nil), include...)}, nil
	case len(exclude) > 0:
		return Policy{mode: Exclude, names: append([]string(nil), exclude...)}, nil
	default:
		return Policy{mode: All}, nil
	}
}

// Mode returns the policy variant.
func (p Policy) Mode() Mode {
	return p.mode
}

// Names returns the include or exclude list.
func (p Policy) Names() []string {
	return append([]string(nil), p.names...)
}

// Resolve returns the selected subset of all. Include keeps the caller's
// order and drops names that are not in all; Exclude keeps the order of all.
func (p Policy) Resolve(all []string) []string {
	switch p.mode {
	case Include:
		known := set(all)
		var out []string
		for _, n := range p.names {
			if known[n] {
				out = append(out, n)
			}
		}
		return out
	case Exclude:
		skip := set(p.names)
		var out []string
		for _, n := range all {
			if !skip[n] {
				out = append(out, n)
			}
		}
		return out
	default:
		return append([]string(nil), all...)
	}
}

func set(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// InvalidPolicyError is returned when include and exclude lists are both set.
type InvalidPolicyError struct {
	Include []string
	Exclude []string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("include and exclude lists cannot both be set (include: [%s], exclude: [%s])",
		strings.Join(e.Include, ","), strings.Join(e.Exclude, ","))
}
