package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/schollz/progressbar/v3"

	"github.com/zombor/expense-tracker/internal/ledger"
	"github.com/zombor/expense-tracker/internal/scanning"
)

func (a *app) scanCommand(parent *ff.FlagSet) *ff.Command {
	flags := ff.NewFlagSet("scan").SetParent(parent)
	yes := flags.BoolLong("yes", "Save without asking for review")
	return &ff.Command{
		Name:      "scan",
		Usage:     "expensectl scan [--yes] <FILE>",
		ShortHelp: "extract an expense from a receipt photo",
		Flags:     flags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("scan takes exactly one receipt image")
			}
			return a.scan(ctx, args[0], *yes)
		},
	}
}

func (a *app) scan(ctx context.Context, path string, skipReview bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading receipt: %w", err)
	}

	client := a.client()
	if _, err := client.Health(ctx); err != nil {
		return fmt.Errorf("server %s is not reachable: %w", *a.serverURL, err)
	}

	expense, err := withSpinner("Extracting expense data...", func() (*scanning.ExtractedExpense, error) {
		return client.Extract(ctx, path, data)
	})
	if err != nil {
		return err
	}

	renderExtracted(os.Stdout, expense)
	if !skipReview && !confirm(os.Stdin, os.Stdout, "Save this expense? (Y/n): ", true) {
		fmt.Println(infoStyle.Render("Discarded."))
		return nil
	}

	store, err := a.open()
	if err != nil {
		return err
	}
	saved, err := store.Add(ledger.Expense{
		Merchant:  expense.Merchant,
		Amount:    expense.Amount,
		Currency:  expense.Currency,
		Date:      expense.Date,
		ImageData: scanning.EncodeDataURI(data, http.DetectContentType(data)),
	})
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Saved " + saved.ID))
	return nil
}

// withSpinner shows an indeterminate spinner on stderr while fn runs
func withSpinner[T any](description string, fn func() (T, error)) (T, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	result, err := fn()
	close(done)
	_ = bar.Finish()
	return result, err
}

// confirm asks a yes/no question. An empty answer takes the default, which is no unless given.
func confirm(in io.Reader, out io.Writer, question string, defaultYes ...bool) bool {
	fmt.Fprint(out, boldStyle.Render(question))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "":
		return len(defaultYes) > 0 && defaultYes[0]
	default:
		return false
	}
}
