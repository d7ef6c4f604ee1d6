package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"
)

const (
	bucketName = "ledger"

	// StorageKey is the single key the whole expense list is stored under
	StorageKey = "expense-tracker-data"
)

// Store keeps an ordered list of expenses, newest first, in a BoltDB file.
// Every write replaces the whole list.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the ledger file
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save replaces the stored list
func (s *Store) Save(expenses []Expense) error {
	if expenses == nil {
		expenses = []Expense{}
	}
	data, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("marshaling expenses: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(StorageKey), data)
	})
	if err != nil {
		slog.Error("Error saving expenses", "error", err)
		return fmt.Errorf("saving expenses: %w", err)
	}
	slog.Debug("Saved expenses", "count", len(expenses))
	return nil
}

// Load returns the stored list. Missing, unreadable or corrupt data yields an empty list.
func (s *Store) Load() []Expense {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(StorageKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		slog.Error("Error loading expenses", "error", err)
		return []Expense{}
	}
	if data == nil {
		return []Expense{}
	}

	var expenses []Expense
	if err := json.Unmarshal(data, &expenses); err != nil {
		slog.Error("Stored expenses are corrupt, starting empty", "error", err)
		return []Expense{}
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses
}

// Clear removes the stored list
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(StorageKey))
	})
	if err != nil {
		slog.Error("Error clearing expenses", "error", err)
		return fmt.Errorf("clearing expenses: %w", err)
	}
	return nil
}

// Add puts a new expense at the front of the list with a fresh ID and timestamp
func (s *Store) Add(e Expense) (Expense, error) {
	e.ID = uuid.New().String()
	e.Timestamp = s.now().UTC()

	expenses := append([]Expense{e}, s.Load()...)
	if err := s.Save(expenses); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// Delete removes the expense with the given ID
func (s *Store) Delete(id string) error {
	expenses := s.Load()
	kept := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(expenses) {
		return fmt.Errorf("expense not found: %s", id)
	}
	return s.Save(kept)
}

// Stats reports the stored size and count
func (s *Store) Stats() Stats {
	var size int
	s.db.View(func(tx *bbolt.Tx) error {
		size = len(tx.Bucket([]byte(bucketName)).Get([]byte(StorageKey)))
		return nil
	})
	return Stats{SizeBytes: size, ExpenseCount: len(s.Load())}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Total sums expense amounts per currency without float drift
func Total(expenses []Expense) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Currency] = totals[e.Currency].Add(decimal.NewFromFloat(e.Amount))
	}
	return totals
}
