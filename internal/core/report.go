package core

// CategoryAmount is an amount aggregated under one category name.
// Grouping is by exact string equality; no normalization happens here.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// DateAmount is an amount aggregated under one calendar date.
type DateAmount struct {
	Date   string
	Amount float64
}

// Report is the computed view over every stored expense. It carries no
// rendering; both presentation layers format it themselves.
type Report struct {
	Total      float64
	Count      int
	Mean       float64
	ByCategory []CategoryAmount // sorted by amount descending
	ByDate     []DateAmount     // sorted by date ascending
}
