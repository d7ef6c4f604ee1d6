package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/zombor/expense-tracker/internal/ledger"
	"github.com/zombor/expense-tracker/internal/scanning"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boldStyle = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func renderExtracted(w io.Writer, e *scanning.ExtractedExpense) {
	body := fmt.Sprintf("%s %s\n%s %.2f %s\n%s %s",
		headerStyle.Render("Merchant:"), e.Merchant,
		headerStyle.Render("Amount:  "), e.Amount, e.Currency,
		headerStyle.Render("Date:    "), e.Date,
	)
	fmt.Fprintln(w, titleStyle.Render("Extracted!"))
	fmt.Fprintln(w, boxStyle.Render(body))
}

func renderList(w io.Writer, expenses []ledger.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, infoStyle.Render("No expenses yet. Use 'expensectl scan' to add one."))
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Expenses (%d)", len(expenses))))
	// columns are padded before styling; escape codes would otherwise count towards the width
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-36s  %-10s  %-24s  %12s", "ID", "Date", "Merchant", "Amount")))
	for _, e := range expenses {
		fmt.Fprintf(w, "%s  %-10s  %-24s  %8.2f %s\n",
			subtleStyle.Render(fmt.Sprintf("%-36s", e.ID)), e.Date, truncate(e.Merchant, 24), e.Amount, e.Currency)
	}
	renderTotals(w, expenses)
}

func renderStats(w io.Writer, stats ledger.Stats, expenses []ledger.Expense) {
	fmt.Fprintln(w, titleStyle.Render("Ledger"))
	fmt.Fprintf(w, "%s %d\n", headerStyle.Render("Expenses:"), stats.ExpenseCount)
	fmt.Fprintf(w, "%s %.2f KB\n", headerStyle.Render("Size:    "), float64(stats.SizeBytes)/1024)
	renderTotals(w, expenses)
}

func renderTotals(w io.Writer, expenses []ledger.Expense) {
	totals := ledger.Total(expenses)
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)
	for _, c := range currencies {
		fmt.Fprintf(w, "%s %s %s\n", boldStyle.Render("Total"), totals[c].StringFixed(2), c)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
