package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"trade-profit-calculator-go/internal/profit"
	"trade-profit-calculator-go/internal/tracker"
)

var (
	colorBorder = lipgloss.Color("#4D4C57")
	colorMuted  = lipgloss.Color("#858392")
	colorText   = lipgloss.Color("#DFDBDD")
	colorAccent = lipgloss.Color("#6B50FF")
	colorInfo   = lipgloss.Color("#00CED1")
)

// styles are bound to a renderer so that output written to a buffer or a
// pipe stays free of escape codes.
type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	pair   lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	indent lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorAccent),
		muted:  r.NewStyle().Foreground(colorMuted),
		pair:   r.NewStyle().Foreground(colorText),
		header: r.NewStyle().Bold(true).Foreground(colorInfo).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		border: r.NewStyle().Foreground(colorBorder),
		indent: r.NewStyle().PaddingLeft(3),
	}
}

func (st styles) renderView(w io.Writer, pos int, v tracker.View) {
	ticker := v.Ticker
	if ticker == "" {
		ticker = "(no ticker)"
	}
	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("#%d %s  fee %s%%", pos, ticker, profit.FormatAmount(v.Fee)))+
		"  "+st.muted.Render("["+v.ID+"]"))
	if v.IsCollapsed {
		fmt.Fprintln(w, st.indent.Render(st.muted.Render(fmt.Sprintf("%d trades, avg %s, total %s %s (collapsed)",
			len(v.Summary.Trades), v.Summary.AveragePrice, v.Summary.TotalCost, profit.QuoteCurrency))))
		return
	}
	if v.ChartURL != "" {
		fmt.Fprintln(w, st.indent.Render(st.muted.Render("chart: "+v.ChartURL)))
	}
	st.renderSummary(w, v.Summary)
	if v.LastCalculation != nil {
		fmt.Fprintln(w, st.indent.Render(st.pair.Render("last: "+v.LastCalculation.ResultText)))
	}
}

func (st styles) renderSummary(w io.Writer, s profit.Summary) {
	if len(s.Trades) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(st.border).
			Headers("#", "Amount", "Price", "Fee").
			StyleFunc(func(row, col int) lipgloss.Style {
				style := st.cell
				if row == table.HeaderRow {
					style = st.header
				}
				return style.Align(lipgloss.Right)
			})
		for _, tr := range s.Trades {
			t.Row(strconv.Itoa(tr.Position), tr.Amount, tr.Price, tr.Fee)
		}
		fmt.Fprintln(w, st.indent.Render(t.String()))
	}

	pairs := []string{
		"Average price: " + s.AveragePrice,
		"Total amount: " + s.TotalAmount,
		"Total " + profit.QuoteCurrency + ": " + s.TotalCost,
		"Total fees: " + s.TotalFees,
	}
	for i, p := range pairs {
		pairs[i] = st.pair.Render(p)
	}
	fmt.Fprintln(w, st.indent.Render(strings.Join(pairs, "  ")))
}
