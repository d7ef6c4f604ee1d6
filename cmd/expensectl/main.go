package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/ledger"
	"github.com/zombor/expense-tracker/internal/receipt"
)

// app holds what every subcommand needs
type app struct {
	serverURL  *string
	ledgerPath *string
	store      *ledger.Store
}

// open lazily opens the ledger file
func (a *app) open() (*ledger.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := ledger.Open(*a.ledgerPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) client() *receipt.Client {
	return receipt.NewClient(*a.serverURL, nil)
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".expense-tracker.db"
	}
	return filepath.Join(home, ".expense-tracker.db")
}

func main() {
	_ = godotenv.Load()

	a := &app{}
	rootFlags := ff.NewFlagSet("expensectl")
	a.serverURL = rootFlags.StringLong("server", "http://localhost:3000", "Expense tracker server URL")
	a.ledgerPath = rootFlags.StringLong("ledger", defaultLedgerPath(), "Local ledger file path")

	root := &ff.Command{
		Name:      "expensectl",
		Usage:     "expensectl [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "scan receipts and keep a local expense ledger",
		Flags:     rootFlags,
		Subcommands: []*ff.Command{
			a.scanCommand(rootFlags),
			a.listCommand(rootFlags),
			a.deleteCommand(rootFlags),
			a.clearCommand(rootFlags),
			a.statsCommand(rootFlags),
		},
		Exec: func(ctx context.Context, args []string) error {
			return ff.ErrHelp
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	err := root.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("EXPENSE_TRACKER"))
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
	default:
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error: %v", err)))
		a.close()
		os.Exit(1)
	}
}

func (a *app) listCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "list",
		Usage:     "expensectl list",
		ShortHelp: "show saved expenses, newest first",
		Flags:     ff.NewFlagSet("list").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			renderList(os.Stdout, store.Load())
			return nil
		},
	}
}

func (a *app) deleteCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "delete",
		Usage:     "expensectl delete <ID>",
		ShortHelp: "remove one expense",
		Flags:     ff.NewFlagSet("delete").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("delete takes exactly one expense id")
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Deleted " + args[0]))
			return nil
		},
	}
}

func (a *app) clearCommand(parent *ff.FlagSet) *ff.Command {
	flags := ff.NewFlagSet("clear").SetParent(parent)
	yes := flags.BoolLong("yes", "Do not ask for confirmation")
	return &ff.Command{
		Name:      "clear",
		Usage:     "expensectl clear [--yes]",
		ShortHelp: "remove every saved expense",
		Flags:     flags,
		Exec: func(ctx context.Context, args []string) error {
			if !*yes && !confirm(os.Stdin, os.Stdout, "Delete all expenses? (y/N): ") {
				fmt.Println(infoStyle.Render("Nothing deleted."))
				return nil
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Ledger cleared."))
			return nil
		},
	}
}

func (a *app) statsCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "stats",
		Usage:     "expensectl stats",
		ShortHelp: "show ledger size and totals",
		Flags:     ff.NewFlagSet("stats").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			renderStats(os.Stdout, store.Stats(), store.Load())
			return nil
		},
	}
}
