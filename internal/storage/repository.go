// Package storage owns every read and write against the expenses table.
// No other package touches the database directly.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"outlay/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the single gateway to the expenses table. It holds a
// *sql.DB pool; every operation borrows a connection for one statement and
// returns it on every exit path, so nothing is held across calls.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add inserts a new expense. The store assigns the id; e.ID is ignored.
func (r *Repository) Add(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, category, amount, description) VALUES (?, ?, ?, ?)`,
		e.Date, e.Category, e.Amount, e.Description)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date,
		"category", e.Category,
		"amount", e.Amount)

	return id, nil
}

// ListAll returns every expense, newest date first. An empty table yields
// an empty slice, not an error.
func (r *Repository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, category, amount, COALESCE(description, '')
		 FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}

	return expenses, nil
}

// Update replaces all mutable fields of the expense matching e.ID.
// Returns core.ErrExpenseNotFound when no row matches; callers report it
// and do not retry.
func (r *Repository) Update(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, category = ?, amount = ?, description = ? WHERE id = ?`,
		e.Date, e.Category, e.Amount, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense %d rows affected: %w", e.ID, err)
	}
	if affected == 0 {
		return core.ErrExpenseNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "category", e.Category, "amount", e.Amount)
	return nil
}

// Delete removes the expense matching id, with the same not-found contract
// as Update.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d rows affected: %w", id, err)
	}
	if affected == 0 {
		return core.ErrExpenseNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Count returns the number of stored expenses.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}
