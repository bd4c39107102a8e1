package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// DefaultTopN is the number of categories kept by a breakdown.
const DefaultTopN = 8

// View selects which entry kinds a breakdown or filter keeps.
// The zero value behaves like All.
type View string

const (
	ViewAll     View = "All"
	ViewIncome  View = "Income"
	ViewExpense View = "Expense"
)

// ParseView accepts "", "all", "income" and "expense" in any case.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ViewAll, nil
	case "income":
		return ViewIncome, nil
	case "expense":
		return ViewExpense, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Match reports whether an entry of kind k is kept by the view.
func (v View) Match(k core.Kind) bool {
	switch v {
	case "", ViewAll:
		return true
	default:
		return string(v) == string(k)
	}
}

// CategoryBreakdown lists category names and their summed magnitudes,
// largest first.
type CategoryBreakdown struct {
	Labels []string          `json:"labels"`
	Data   []decimal.Decimal `json:"data"`
}

// BuildCategoryBreakdown groups entries kept by view by exact category name
// and returns the topN largest groups. Groups with equal sums keep the order
// in which their category first appeared. Groups beyond topN are dropped.
// A topN <= 0 uses DefaultTopN.
func BuildCategoryBreakdown(entries []core.Entry, view View, topN int) CategoryBreakdown {
	if topN <= 0 {
		topN = DefaultTopN
	}
	type group struct {
		name string
		sum  decimal.Decimal
	}
	var groups []group
	index := make(map[string]int)
	for _, e := range entries {
		if !view.Match(e.Kind) {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(groups)
			index[e.Category] = i
			groups = append(groups, group{name: e.Category, sum: decimal.Zero})
		}
		groups[i].sum = groups[i].sum.Add(e.Magnitude())
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].sum.GreaterThan(groups[j].sum)
	})
	if len(groups) > topN {
		groups = groups[:topN]
	}
	out := CategoryBreakdown{
		Labels: make([]string, len(groups)),
		Data:   make([]decimal.Decimal, len(groups)),
	}
	for i, g := range groups {
		out.Labels[i] = g.name
		out.Data[i] = g.sum
	}
	return out
}

// Categories returns the distinct category names in first-seen order.
func Categories(entries []core.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}
