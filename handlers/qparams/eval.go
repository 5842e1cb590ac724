package qparams

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/paccolamano/dashkit/utility"
)

// FieldFunc returns the value of field for item as a string. Numeric values
// should be rendered with strconv so that comparisons are numeric.
type FieldFunc[T any] func(item T, field string) string

// Apply filters, sorts and paginates items according to s. A nil s returns
// items unchanged. The input slice is never modified.
func Apply[T any](items []T, s *SearchRequest, field FieldFunc[T]) []T {
	if s == nil {
		return items
	}

	likes := compileLikes(s.Groups, nil)
	out := utility.Filter(items, func(item T) bool {
		return s.Groups.matches(func(name string) string { return field(item, name) }, likes)
	})

	if len(s.OrderBy) > 0 {
		slices.SortStableFunc(out, func(a, b T) int {
			for _, o := range s.OrderBy {
				c := compareValues(field(a, o.Field), field(b, o.Field))
				if o.Direction == OrderDesc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	return utility.Window(out, utility.ValueOr(s.Offset, 0), utility.ValueOr(s.Limit, -1))
}

// Matches reports whether the fields returned by get satisfy g. A nil or
// empty group matches everything.
func (g *FilterGroup) Matches(get func(field string) string) bool {
	return g.matches(get, compileLikes(g, nil))
}

func (g *FilterGroup) matches(get func(field string) string, likes map[string]*regexp.Regexp) bool {
	if g == nil || (len(g.Filters) == 0 && len(g.Groups) == 0) {
		return true
	}

	results := make([]bool, 0, len(g.Filters)+len(g.Groups))
	for _, f := range g.Filters {
		results = append(results, f.matches(get(f.Field), likes))
	}
	for i := range g.Groups {
		results = append(results, g.Groups[i].matches(get, likes))
	}

	if g.Op == OrOperator {
		return slices.Contains(results, true)
	}
	return !slices.Contains(results, false)
}

// Matches reports whether value satisfies f.
func (f Filter) Matches(value string) bool {
	return f.matches(value, nil)
}

// matches uses the compiled pattern from likes when present.
func (f Filter) matches(value string, likes map[string]*regexp.Regexp) bool {
	switch f.Op {
	case EqualsOperator:
		return compareValues(value, f.Value) == 0
	case NotEqualsOperator:
		return compareValues(value, f.Value) != 0
	case GreaterThanOperator:
		return compareValues(value, f.Value) > 0
	case GreaterThanEqualsOperator:
		return compareValues(value, f.Value) >= 0
	case LowerThanOperator:
		return compareValues(value, f.Value) < 0
	case LowerThanEqualsOperator:
		return compareValues(value, f.Value) <= 0
	case LikeOperator:
		re, ok := likes[f.Value]
		if !ok {
			re = likePattern(f.Value)
		}
		return re.MatchString(value)
	case InOperator:
		for _, candidate := range strings.Split(f.Value, ",") {
			if compareValues(value, strings.TrimSpace(candidate)) == 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compareValues compares numerically when both sides are numbers and
// lexically otherwise.
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(a, b)
}

// compileLikes adds the compiled pattern of every like filter in g to likes,
// keyed by the raw pattern, and returns it.
func compileLikes(g *FilterGroup, likes map[string]*regexp.Regexp) map[string]*regexp.Regexp {
	if g == nil {
		return likes
	}

	for _, f := range g.Filters {
		if f.Op != LikeOperator {
			continue
		}
		if likes == nil {
			likes = make(map[string]*regexp.Regexp)
		}
		if _, ok := likes[f.Value]; !ok {
			likes[f.Value] = likePattern(f.Value)
		}
	}

	for i := range g.Groups {
		likes = compileLikes(&g.Groups[i], likes)
	}

	return likes
}

func likePattern(pattern string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")

	return regexp.MustCompile(sb.String())
}
