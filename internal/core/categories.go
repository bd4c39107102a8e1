package core

var (
	incomeCategories  = []string{"Salary", "Freelance", "Investment", "Business", "Other"}
	expenseCategories = []string{"Food", "Transport", "Entertainment", "Shopping", "Bills", "Healthcare", "Education", "Other"}
)

// SuggestedCategories returns the default category names offered for a kind.
// The returned slice is a copy.
func SuggestedCategories(k Kind) []string {
	var src []string
	switch k {
	case Income:
		src = incomeCategories
	case Expense:
		src = expenseCategories
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
