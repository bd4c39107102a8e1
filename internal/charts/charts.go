// Package charts renders report series as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ledger/internal/report"
)

// ErrNoData is returned when every value of a chart is zero.
var ErrNoData = errors.New("no data to chart")

// Names accepted by Render.
const (
	Trends       = "trends"
	SavingsRate  = "savings-rate"
	ExpenseRatio = "expense-ratio"
	Categories   = "categories"
)

var (
	colorIncome  = drawing.ColorFromHex("16a34a")
	colorExpense = drawing.ColorFromHex("dc2626")
	colorBalance = drawing.ColorFromHex("2563eb")
)

// Renderer draws the dashboard charts.
type Renderer struct {
	CurrencySymbol string
	Width, Height  int
}

func NewRenderer(currencySymbol string) *Renderer {
	return &Renderer{CurrencySymbol: currencySymbol, Width: 1200, Height: 600}
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
		FillColor: chart.ColorWhite,
	}
}

func axisStyle() chart.Style {
	return chart.Style{FontSize: 12, FontColor: chart.ColorBlack}
}

func floats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}

func allZero(series ...[]float64) bool {
	for _, s := range series {
		for _, v := range s {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func monthTicks(labels []string) []chart.Tick {
	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}
	return ticks
}

// Trends draws income, expense and balance lines over the trailing months.
func (r *Renderer) Trends(s report.MonthlySeries) ([]byte, error) {
	income, expense, balance := floats(s.Income), floats(s.Expense), floats(s.Balance)
	if allZero(income, expense, balance) {
		return nil, ErrNoData
	}

	xs := make([]float64, len(income))
	for i := range xs {
		xs[i] = float64(i)
	}

	line := func(name string, ys []float64, color drawing.Color) chart.ContinuousSeries {
		return chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
		}
	}

	graph := chart.Chart{
		Title:      "Monthly Trends",
		Width:      r.Width,
		Height:     r.Height,
		Background: background(),
		XAxis: chart.XAxis{
			Ticks: monthTicks(s.Labels()),
			Style: axisStyle(),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%s %.0f", r.CurrencySymbol, v.(float64))
			},
			Style: axisStyle(),
		},
		Series: []chart.Series{
			line("Income", income, colorIncome),
			line("Expense", expense, colorExpense),
			line("Balance", balance, colorBalance),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, axisStyle())}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render trends chart: %w", err)
	}
	return buf.Bytes(), nil
}

// SavingsRate draws the monthly savings rate as bars.
func (r *Renderer) SavingsRate(s report.MonthlySeries) ([]byte, error) {
	return r.percentBars("Savings Rate", s.Labels(), s.SavingsRate, colorIncome)
}

// ExpenseRatio draws the monthly expense-to-income ratio as bars.
func (r *Renderer) ExpenseRatio(s report.MonthlySeries) ([]byte, error) {
	return r.percentBars("Expense Ratio", s.Labels(), s.ExpenseRatio, colorExpense)
}

func (r *Renderer) percentBars(title string, labels []string, values []float64, color drawing.Color) ([]byte, error) {
	if allZero(values) {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(values))
	for i, v := range values {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: v,
			Style: chart.Style{StrokeColor: color, FillColor: color},
		}
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 14, FontColor: chart.ColorBlack},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   50,
		BarSpacing: 30,
		Background: background(),
		XAxis:      axisStyle(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f%%", v.(float64))
			},
			Style: axisStyle(),
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", title, err)
	}
	return buf.Bytes(), nil
}

// Categories draws a category breakdown as a pie. Zero slices are skipped.
func (r *Renderer) Categories(title string, b report.CategoryBreakdown) ([]byte, error) {
	values := make([]chart.Value, 0, len(b.Labels))
	for i, label := range b.Labels {
		v := b.Data[i].InexactFloat64()
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s %.0f", label, r.CurrencySymbol, v),
			Value: v,
			Style: axisStyle(),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      r.Height,
		Height:     r.Height,
		Values:     values,
		Background: background(),
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buf.Bytes(), nil
}
