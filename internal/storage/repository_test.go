package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"outlay/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "outlay.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAddThenListAll(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, core.Expense{
		Date: "2024-01-01", Category: "Food", Amount: 12.5, Description: "lunch",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(all))
	}
	got := all[0]
	if got.ID != id || got.Date != "2024-01-01" || got.Category != "Food" ||
		got.Amount != 12.5 || got.Description != "lunch" {
		t.Fatalf("round-tripped expense mismatch: %+v", got)
	}
}

func TestIDsAreDistinct(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		id, err := repo.Add(ctx, core.Expense{Date: "2024-01-01", Category: "Other", Amount: 1})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
}

func TestListAllOrdersByDateDescending(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-02", "2024-03-15", "2023-12-31"} {
		if _, err := repo.Add(ctx, core.Expense{Date: d, Category: "Food", Amount: 1}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03-15", "2024-01-02", "2023-12-31"}
	for i, w := range want {
		if all[i].Date != w {
			t.Fatalf("position %d: got %s, want %s", i, all[i].Date, w)
		}
	}
}

func TestListAllEmpty(t *testing.T) {
	repo := newTestRepository(t)

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty slice, got %d entries", len(all))
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, core.Expense{Date: "2024-01-01", Category: "Food", Amount: 10, Description: "old"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = repo.Update(ctx, core.Expense{
		ID: id, Date: "2024-02-02", Category: "Travel", Amount: 99.9, Description: "new",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	all, _ := repo.ListAll(ctx)
	got := all[0]
	if got.Date != "2024-02-02" || got.Category != "Travel" || got.Amount != 99.9 || got.Description != "new" {
		t.Fatalf("update did not replace fields: %+v", got)
	}
}

func TestUpdateNotFoundMutatesNothing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, core.Expense{Date: "2024-01-01", Category: "Food", Amount: 10}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := repo.Update(ctx, core.Expense{ID: 9999, Date: "2024-02-02", Category: "Travel", Amount: 1})
	if !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}

	all, _ := repo.ListAll(ctx)
	if len(all) != 1 || all[0].Category != "Food" || all[0].Amount != 10 {
		t.Fatalf("update of missing id must not touch existing rows: %+v", all)
	}
}

func TestDeleteNotFoundKeepsCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, core.Expense{Date: "2024-01-01", Category: "Food", Amount: 10}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := repo.Delete(ctx, 12345)
	if !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("record count changed on failed delete: %d", n)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, core.Expense{Date: "2024-01-01", Category: "Bills", Amount: 55})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	n, _ := repo.Count(ctx)
	if n != 0 {
		t.Fatalf("expected empty table after delete, got %d", n)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "outlay.db")

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	// Second start over the same file must not fail.
	repo, err = NewRepository(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	repo.Close()
}
