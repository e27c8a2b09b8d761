package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"outlay/internal/core"
	"outlay/internal/report"
)

// Store is the slice of the storage gateway the menu needs.
type Store interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	Update(ctx context.Context, e core.Expense) error
	Delete(ctx context.Context, id int64) error
}

// ReportGenerator produces the aggregate report; report.ErrNoData signals
// an empty table.
type ReportGenerator interface {
	Generate(ctx context.Context) (core.Report, error)
}

// Menu drives the interactive terminal loop. Reader and writer are
// injected so the whole flow is testable with scripted input.
type Menu struct {
	store    Store
	reporter ReportGenerator
	in       *bufio.Scanner
	out      io.Writer
	now      func() time.Time
}

func NewMenu(store Store, reporter ReportGenerator, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		store:    store,
		reporter: reporter,
		in:       bufio.NewScanner(in),
		out:      out,
		now:      time.Now,
	}
}

// Run loops over the menu until the user exits or input ends. Every
// failure is reported inline and the loop continues; nothing here
// terminates the process.
func (m *Menu) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "EXPENSE TRACKER MENU")
		fmt.Fprintln(m.out, "1. Add Expense")
		fmt.Fprintln(m.out, "2. View All Expenses")
		fmt.Fprintln(m.out, "3. Delete Expense")
		fmt.Fprintln(m.out, "4. Update Expense")
		fmt.Fprintln(m.out, "5. Data Analysis")
		fmt.Fprintln(m.out, "6. Exit")

		choice, ok := m.prompt("Choose an option: ")
		if !ok {
			return nil // input closed
		}

		switch strings.TrimSpace(choice) {
		case "1":
			e := m.promptExpense()
			if _, err := m.store.Add(ctx, e); err != nil {
				fmt.Fprintf(m.out, "Error adding expense: %v\n", err)
			} else {
				fmt.Fprintln(m.out, "Expense added successfully!")
			}
		case "2":
			m.viewExpenses(ctx)
		case "3":
			m.deleteExpense(ctx)
		case "4":
			m.updateExpense(ctx)
		case "5":
			m.analyze(ctx)
		case "6":
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Try again.")
		}
	}
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

// promptExpense collects one expense from the terminal. A non-numeric
// amount falls back to zero; an unrecognized category choice falls back
// to Other.
func (m *Menu) promptExpense() core.Expense {
	today := core.Today(m.now())

	date, _ := m.prompt(fmt.Sprintf("Enter Date (YYYY-MM-DD) [Default: %s]: ", today))
	date = strings.TrimSpace(date)
	if date == "" {
		date = today
	}
	if err := core.ValidateDate(date); err != nil {
		fmt.Fprintf(m.out, "Invalid date %q. Using %s.\n", date, today)
		date = today
	}

	fmt.Fprintln(m.out, "\n--- Categories ---")
	for i, c := range core.Categories {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, c)
	}
	choice, _ := m.prompt(fmt.Sprintf("Select Category (1-%d): ", len(core.Categories)))
	category := core.CategoryOther
	if n, err := strconv.Atoi(strings.TrimSpace(choice)); err == nil && n >= 1 && n <= len(core.Categories) {
		category = core.Categories[n-1]
	}

	amountText, _ := m.prompt("Enter Amount: ")
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountText), 64)
	if err != nil || amount < 0 {
		fmt.Fprintln(m.out, "Invalid amount. Setting to 0.")
		amount = 0
	}

	description, _ := m.prompt("Enter Description (Optional): ")

	return core.Expense{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(description),
	}
}

func (m *Menu) viewExpenses(ctx context.Context) {
	expenses, err := m.store.ListAll(ctx)
	if err != nil {
		fmt.Fprintf(m.out, "Error loading expenses: %v\n", err)
		return
	}
	if len(expenses) == 0 {
		fmt.Fprintln(m.out, "\nNo expenses found yet.")
		return
	}

	fmt.Fprintln(m.out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintf(m.out, "%-5s %-12s %-10s %-10s %s\n", "ID", "Date", "Category", "Amount", "Description")
	fmt.Fprintln(m.out, strings.Repeat("-", 60))
	for _, e := range expenses {
		fmt.Fprintf(m.out, "%-5d %-12s %-10s %-10.2f %s\n", e.ID, e.Date, e.Category, e.Amount, e.Description)
	}
	fmt.Fprintln(m.out, strings.Repeat("=", 60))
}

func (m *Menu) promptID(label string) (int64, bool) {
	text, ok := m.prompt(label)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid ID. Please enter a number.")
		return 0, false
	}
	return id, true
}

func (m *Menu) deleteExpense(ctx context.Context) {
	m.viewExpenses(ctx)

	id, ok := m.promptID("Enter the ID of the expense to DELETE: ")
	if !ok {
		return
	}

	confirm, _ := m.prompt(fmt.Sprintf("Are you sure you want to delete ID %d? (y/n): ", id))
	if !strings.EqualFold(strings.TrimSpace(confirm), "y") {
		fmt.Fprintln(m.out, "Operation cancelled.")
		return
	}

	switch err := m.store.Delete(ctx, id); {
	case errors.Is(err, core.ErrExpenseNotFound):
		fmt.Fprintln(m.out, "Error: ID not found.")
	case err != nil:
		fmt.Fprintf(m.out, "Error deleting expense: %v\n", err)
	default:
		fmt.Fprintln(m.out, "Expense deleted successfully!")
	}
}

func (m *Menu) updateExpense(ctx context.Context) {
	m.viewExpenses(ctx)

	id, ok := m.promptID("Enter the ID of the expense to UPDATE: ")
	if !ok {
		return
	}

	fmt.Fprintf(m.out, "\n--- Enter New Details for ID %d ---\n", id)
	e := m.promptExpense()
	e.ID = id

	switch err := m.store.Update(ctx, e); {
	case errors.Is(err, core.ErrExpenseNotFound):
		fmt.Fprintln(m.out, "Error: ID not found.")
	case err != nil:
		fmt.Fprintf(m.out, "Error updating expense: %v\n", err)
	default:
		fmt.Fprintln(m.out, "Expense updated successfully!")
	}
}

func (m *Menu) analyze(ctx context.Context) {
	rep, err := m.reporter.Generate(ctx)
	if errors.Is(err, report.ErrNoData) {
		fmt.Fprintln(m.out, "\nNo data available to analyze yet. Add some expenses first!")
		return
	}
	if err != nil {
		fmt.Fprintf(m.out, "Error generating report: %v\n", err)
		return
	}

	fmt.Fprintln(m.out, "\n"+strings.Repeat("=", 40))
	fmt.Fprintln(m.out, "EXPENSE ANALYSIS REPORT")
	fmt.Fprintln(m.out, strings.Repeat("=", 40))
	fmt.Fprintf(m.out, "Total Amount Spent:   $%.2f\n", rep.Total)
	fmt.Fprintf(m.out, "Total Transactions:   %d\n", rep.Count)
	fmt.Fprintf(m.out, "Average per Spend:    $%.2f\n", rep.Mean)
	fmt.Fprintln(m.out, strings.Repeat("-", 40))

	fmt.Fprintln(m.out, "\nSPENDING BY CATEGORY:")
	for _, c := range rep.ByCategory {
		fmt.Fprintf(m.out, "%-12s %10.2f\n", c.Name, c.Amount)
	}
	fmt.Fprintln(m.out, strings.Repeat("-", 40))

	fmt.Fprintln(m.out, "\nDAILY SPENDING:")
	for _, d := range rep.ByDate {
		fmt.Fprintf(m.out, "%-12s %10.2f\n", d.Date, d.Amount)
	}
	fmt.Fprintln(m.out, strings.Repeat("=", 40))
}
