// Package report computes summary statistics over all stored expenses.
// It only reads through the storage gateway and has no side effects;
// rendering belongs to the presentation layers.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"outlay/internal/core"
)

// ErrNoData is the explicit empty signal for a table with no expenses.
// Callers branch on it instead of receiving a report full of zeros.
var ErrNoData = errors.New("no expenses to analyze")

// Lister is the slice of the storage gateway the reporter needs.
type Lister interface {
	ListAll(ctx context.Context) ([]core.Expense, error)
}

type Reporter struct {
	store Lister
}

func NewReporter(store Lister) *Reporter {
	return &Reporter{store: store}
}

// Generate loads every expense and computes totals, per-category sums and
// the daily trend. Category grouping is by exact string equality; two
// spellings that differ in case or whitespace are distinct groups.
func (r *Reporter) Generate(ctx context.Context) (core.Report, error) {
	expenses, err := r.store.ListAll(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("load expenses: %w", err)
	}
	if len(expenses) == 0 {
		return core.Report{}, ErrNoData
	}

	rep := core.Report{Count: len(expenses)}
	byCategory := map[string]float64{}
	byDate := map[string]float64{}

	for _, e := range expenses {
		rep.Total += e.Amount
		byCategory[e.Category] += e.Amount
		byDate[e.Date] += e.Amount
	}
	rep.Mean = rep.Total / float64(rep.Count)

	for name, amount := range byCategory {
		rep.ByCategory = append(rep.ByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(rep.ByCategory, func(i, j int) bool {
		a, b := rep.ByCategory[i], rep.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})

	for date, amount := range byDate {
		rep.ByDate = append(rep.ByDate, core.DateAmount{Date: date, Amount: amount})
	}
	sort.Slice(rep.ByDate, func(i, j int) bool {
		return rep.ByDate[i].Date < rep.ByDate[j].Date
	})

	return rep, nil
}
