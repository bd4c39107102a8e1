package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/core"
	"ledger/internal/export"
	"ledger/internal/report"
)

// App carries what the ledgerctl commands need. Open is called once per
// command with the --backend value ("" means the configured default).
type App struct {
	Open           func(ctx context.Context, backendType string) (*backend.Result, error)
	Now            func() time.Time
	CurrencySymbol string
	ReportTitle    string
	PageSize       int
	TopCategories  int

	backend string
	nowFlag string
}

// NewRootCmd builds the ledgerctl command tree.
func NewRootCmd(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.CurrencySymbol == "" {
		app.CurrencySymbol = core.DefaultCurrencySymbol
	}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Personal ledger reports",
		Long:          "Inspect, filter and export the income and expense ledger.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.backend, "backend", "", "Data backend: "+backendNames())
	root.PersistentFlags().StringVar(&app.nowFlag, "now", "", "Override the current date (YYYY-MM-DD)")

	root.AddCommand(
		app.summaryCmd(),
		app.trendsCmd(),
		app.categoriesCmd(),
		app.entriesCmd(),
		app.exportCmd(),
		app.addCmd(),
		app.deleteCmd(),
	)
	return root
}

func backendNames() string {
	var names []string
	for _, t := range backend.Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, "|")
}

// now is the reference time of a command: --now at noon UTC, or the clock.
func (a *App) now() (time.Time, error) {
	if a.nowFlag == "" {
		return a.Now(), nil
	}
	d, err := core.ParseDate(a.nowFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now: %w", err)
	}
	return d.Add(12 * time.Hour), nil
}

func (a *App) money(d decimal.Decimal) string {
	return core.FormatCurrency(a.CurrencySymbol, d)
}

// withEntries opens the backend, lists every entry and calls fn.
func (a *App) withEntries(cmd *cobra.Command, fn func(list []core.Entry, now time.Time) error) error {
	now, err := a.now()
	if err != nil {
		return err
	}
	res, err := a.Open(cmd.Context(), a.backend)
	if err != nil {
		return err
	}
	defer res.Close()

	list, err := res.Store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	return fn(list, now)
}

func (a *App) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Overall and current month totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEntries(cmd, func(list []core.Entry, now time.Time) error {
				s := report.BuildSummary(list, now)
				out := cmd.OutOrStdout()

				fmt.Fprintln(out, RenderTitle("LEDGER SUMMARY  "+now.Format("January 2006")))
				rows := [][]string{
					{"Total Income", a.money(s.Overall.Income)},
					{"Total Expenses", a.money(s.Overall.Expense)},
					{"Balance", Signed(a.money(s.Overall.Balance), s.Overall.Balance.IsNegative())},
					Separator,
					{"This Month Income", a.money(s.CurrentMonth.Income)},
					{"This Month Expenses", a.money(s.CurrentMonth.Expense)},
					{"This Month Balance", Signed(a.money(s.CurrentMonth.Balance), s.CurrentMonth.Balance.IsNegative())},
					Separator,
					{"Entries", fmt.Sprintf("%d", s.Stats.TotalEntries)},
					{"Savings Rate", fmt.Sprintf("%.1f%%", s.Stats.OverallSavingsRate)},
					{"Categories Used", fmt.Sprintf("%d", s.Stats.CategoriesUsed)},
				}
				fmt.Fprint(out, RenderTable(Table{Headers: []string{"Metric", "Value"}, Rows: rows}))
				return nil
			})
		},
	}
}

func (a *App) trendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Income, expenses and rates over the last twelve months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEntries(cmd, func(list []core.Entry, now time.Time) error {
				s := report.BuildMonthlySeries(list, now)
				rows := make([][]string, len(s.Buckets))
				for i, b := range s.Buckets {
					rows[i] = []string{
						b.Label,
						a.money(s.Income[i]),
						a.money(s.Expense[i]),
						Signed(a.money(s.Balance[i]), s.Balance[i].IsNegative()),
						fmt.Sprintf("%.1f%%", s.SavingsRate[i]),
						fmt.Sprintf("%.1f%%", s.ExpenseRatio[i]),
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), RenderTable(Table{
					Title:   "Monthly Trends",
					Headers: []string{"Month", "Income", "Expenses", "Balance", "Savings", "Expense Ratio"},
					Rows:    rows,
				}))
				return nil
			})
		},
	}
}

func (a *App) categoriesCmd() *cobra.Command {
	var (
		view string
		top  int
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Largest categories by total amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := report.ParseView(view)
			if err != nil {
				return err
			}
			if top <= 0 {
				top = a.TopCategories
			}
			return a.withEntries(cmd, func(list []core.Entry, _ time.Time) error {
				b := report.BuildCategoryBreakdown(list, v, top)
				total := decimal.Sum(decimal.Zero, b.Data...)

				rows := make([][]string, len(b.Labels))
				for i, label := range b.Labels {
					share := 0.0
					if total.IsPositive() {
						share = b.Data[i].Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
					}
					rows[i] = []string{label, a.money(b.Data[i]), fmt.Sprintf("%.1f%%", share)}
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No entries for this view.")
					return nil
				}
				fmt.Fprint(out, RenderTable(Table{
					Title:   string(v) + " by Category",
					Headers: []string{"Category", "Amount", "Share"},
					Rows:    rows,
				}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "expense", "income|expense|all")
	cmd.Flags().IntVar(&top, "top", 0, "Number of categories to show")
	return cmd
}

// criteriaFlags are the filter flags shared by entries and export.
type criteriaFlags struct {
	dateRange, start, end, kind, category string
	// defaultRange applies when neither --range nor a bound is given.
	defaultRange string
}

func (f *criteriaFlags) register(cmd *cobra.Command, defaultRange string) {
	f.defaultRange = defaultRange
	cmd.Flags().StringVar(&f.dateRange, "range", "", "all|current-month|previous-month|last-30|last-60|last-90|custom (default "+defaultRange+", or custom with --start/--end)")
	cmd.Flags().StringVar(&f.start, "start", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.kind, "kind", "", "income|expense|all")
	cmd.Flags().StringVar(&f.category, "category", "", "Exact category name")
}

// criteria resolves the flags as seen at now. Bounds without --range
// select a custom range.
func (f *criteriaFlags) criteria(cmd *cobra.Command, now time.Time) (report.FilterCriteria, error) {
	dateRange := f.dateRange
	if !cmd.Flags().Changed("range") && strings.TrimSpace(f.start) == "" && strings.TrimSpace(f.end) == "" {
		dateRange = f.defaultRange
	}
	return report.NewCriteria(dateRange, f.start, f.end, f.kind, f.category, core.DateOf(now))
}

func (a *App) entriesCmd() *cobra.Command {
	var (
		flags    criteriaFlags
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List entries matching the filters, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize <= 0 {
				pageSize = a.PageSize
			}
			if pageSize <= 0 {
				pageSize = report.DefaultPageSize
			}
			return a.withEntries(cmd, func(list []core.Entry, now time.Time) error {
				c, err := flags.criteria(cmd, now)
				if err != nil {
					return err
				}
				state := report.NewTableState(c)
				state.SetPage(page)
				v := state.View(list, pageSize)
				p := v.Rows

				rows := make([][]string, 0, len(p.Items)+2)
				for _, e := range p.Items {
					rows = append(rows, []string{
						e.Date.String(),
						e.ID,
						truncate(e.Description, 40),
						string(e.Kind),
						e.Category,
						Signed(a.money(e.Amount), e.Kind == core.Expense),
					})
				}
				t := v.Totals
				rows = append(rows, Separator, []string{"Balance", "", "", "", "", Signed(a.money(t.Balance), t.Balance.IsNegative())})

				out := cmd.OutOrStdout()
				fmt.Fprint(out, RenderTable(Table{
					Title:   report.DescribeFilter(c),
					Headers: []string{"Date", "ID", "Description", "Type", "Category", "Amount"},
					Rows:    rows,
				}))
				fmt.Fprintf(out, "  Page %d of %d (%d entries)\n", p.Page, max(p.TotalPages, 1), p.TotalItems)
				return nil
			})
		},
	}
	flags.register(cmd, string(report.RangeAll))
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Entries per page")
	return cmd
}

func (a *App) exportCmd() *cobra.Command {
	var (
		flags criteriaFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a PDF report for a time period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEntries(cmd, func(list []core.Entry, now time.Time) error {
				c, err := flags.criteria(cmd, now)
				if err != nil {
					return err
				}
				payload, err := report.BuildExportPayload(list, c, now)
				if errors.Is(err, report.ErrNoPeriodSelected) {
					return fmt.Errorf("please select a time period with --range: %w", err)
				}
				if err != nil {
					return err
				}

				path := out
				if path == "" {
					path = payload.FileName("")
				}
				renderer := export.NewPDFRenderer(a.ReportTitle, a.CurrencySymbol)
				if err := writeReport(path, func(w io.Writer) error { return renderer.Render(w, payload) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d entries, %s)\n", path, len(payload.Rows), payload.PeriodLabel)
				return nil
			})
		},
	}
	flags.register(cmd, string(report.RangeCurrentMonth))
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default financial-report-DATE.pdf)")
	return cmd
}

func (a *App) addCmd() *cobra.Command {
	var date, description, kind, category, amount string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := a.now()
			if err != nil {
				return err
			}
			e := core.Entry{
				Date:        core.DateOf(now),
				Description: strings.TrimSpace(description),
				Category:    strings.TrimSpace(category),
			}
			if date != "" {
				if e.Date, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			if e.Kind, err = core.ParseKind(kind); err != nil {
				return err
			}
			if e.Amount, err = core.ParseAmount(amount); err != nil {
				return err
			}
			if err := e.Validate(); err != nil {
				return err
			}

			res, err := a.Open(cmd.Context(), a.backend)
			if err != nil {
				return err
			}
			defer res.Close()

			saved, err := res.Store.Create(cmd.Context(), e)
			if err != nil {
				return fmt.Errorf("create entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s on %s (%s)\n",
				saved.Kind, a.money(saved.Amount), saved.Category, saved.Date, saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Entry date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVarP(&kind, "type", "t", "expense", "income|expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount, e.g. 1250.50")
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Open(cmd.Context(), a.backend)
			if err != nil {
				return err
			}
			defer res.Close()

			if err := res.Store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// writeReport creates path and fills it with render. A failed render
// leaves no file behind.
func writeReport(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Execute runs root with ctx and prints any error to stderr.
func Execute(ctx context.Context, root *cobra.Command, stderr io.Writer) int {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
