package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the storage format for expense dates. Lexicographic order
// on this layout matches chronological order.
const DateLayout = "2006-01-02"

const (
	CategoryFood     = "Food"
	CategoryTravel   = "Travel"
	CategoryBills    = "Bills"
	CategoryShopping = "Shopping"
	CategoryOther    = "Other"
)

// Categories is the fixed spending vocabulary shared by the CLI, the web
// forms and the extractor prompt. The store itself does not enforce it.
var Categories = []string{
	CategoryFood,
	CategoryTravel,
	CategoryBills,
	CategoryShopping,
	CategoryOther,
}

type Expense struct {
	ID          int64
	Date        string // YYYY-MM-DD
	Category    string
	Amount      float64
	Description string
}

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// NormalizeCategory coerces free-form input onto the fixed vocabulary.
// Matching is case-insensitive after trimming; anything else maps to Other.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, c) {
			return c
		}
	}
	return CategoryOther
}

// IsCategory reports whether s is exactly one of the vocabulary values.
func IsCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}

// ValidateDate checks that s is a real calendar date in DateLayout.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Today formats now in DateLayout, the default for unspecified dates.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func (e Expense) Validate() error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("empty category")
	}
	return nil
}
