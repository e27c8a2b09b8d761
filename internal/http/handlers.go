package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"outlay/internal/core"
	"outlay/internal/report"
)

type pageData struct {
	Title      string
	Active     string
	Message    string
	Error      string
	Today      string
	Categories []string
	Expenses   []core.Expense
	AIEnabled  bool
}

func (s *Server) newPageData(r *http.Request, title, active string) pageData {
	return pageData{
		Title:      title,
		Active:     active,
		Message:    r.URL.Query().Get("msg"),
		Error:      r.URL.Query().Get("err"),
		Today:      core.Today(time.Now()),
		Categories: core.Categories,
		AIEnabled:  s.extractor != nil,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func redirectWithMsg(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func redirectWithErr(w http.ResponseWriter, r *http.Request, path, errMsg string) {
	http.Redirect(w, r, path+"?err="+url.QueryEscape(errMsg), http.StatusSeeOther)
}

// handleIndex renders the dashboard: add form, AI-assisted add form and
// the transaction history.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := s.newPageData(r, "Expenses", "home")
	expenses, err := s.store.ListAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		data.Error = "Could not load expenses"
	}
	data.Expenses = expenses

	s.render(w, r, "index.html", data)
}

// handleCreateExpense accepts the add-expense form. Bad amounts are
// reported inline; nothing here terminates the process.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithErr(w, r, "/", "Invalid form submission")
		return
	}

	date := strings.TrimSpace(r.Form.Get("date"))
	if date == "" {
		date = core.Today(time.Now())
	}
	if err := core.ValidateDate(date); err != nil {
		redirectWithErr(w, r, "/", "Invalid date: use YYYY-MM-DD")
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.Form.Get("amount")), 64)
	if err != nil || amount < 0 {
		redirectWithErr(w, r, "/", "Invalid amount")
		return
	}

	e := core.Expense{
		Date:        date,
		Category:    core.NormalizeCategory(r.Form.Get("category")),
		Amount:      amount,
		Description: sanitizeInput(r.Form.Get("description")),
	}

	id, err := s.store.Add(r.Context(), e)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add expense failed", "error", err, "category", e.Category)
		redirectWithErr(w, r, "/", "Could not save expense")
		return
	}

	s.invalidateReport()
	redirectWithMsg(w, r, "/", fmt.Sprintf("Added %s expense of %s (#%d)", e.Category, formatMoney(e.Amount), id))
}

// handleUpdateExpense replaces every field of the expense matching the
// submitted id. A missing id is reported, not retried.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithErr(w, r, "/manage", "Invalid form submission")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil {
		redirectWithErr(w, r, "/manage", "Invalid expense ID")
		return
	}

	date := strings.TrimSpace(r.Form.Get("date"))
	if err := core.ValidateDate(date); err != nil {
		redirectWithErr(w, r, "/manage", "Invalid date: use YYYY-MM-DD")
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.Form.Get("amount")), 64)
	if err != nil || amount < 0 {
		redirectWithErr(w, r, "/manage", "Invalid amount")
		return
	}

	e := core.Expense{
		ID:          id,
		Date:        date,
		Category:    core.NormalizeCategory(r.Form.Get("category")),
		Amount:      amount,
		Description: sanitizeInput(r.Form.Get("description")),
	}

	if err := s.store.Update(r.Context(), e); err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			redirectWithErr(w, r, "/manage", fmt.Sprintf("Expense #%d not found", id))
			return
		}
		slog.ErrorContext(r.Context(), "Update expense failed", "error", err, "expense_id", id)
		redirectWithErr(w, r, "/manage", "Could not update expense")
		return
	}

	s.invalidateReport()
	redirectWithMsg(w, r, "/manage", fmt.Sprintf("Expense #%d updated", id))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithErr(w, r, "/manage", "Invalid form submission")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil {
		redirectWithErr(w, r, "/manage", "Invalid expense ID")
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			redirectWithErr(w, r, "/manage", fmt.Sprintf("Expense #%d not found", id))
			return
		}
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err, "expense_id", id)
		redirectWithErr(w, r, "/manage", "Could not delete expense")
		return
	}

	s.invalidateReport()
	redirectWithMsg(w, r, "/manage", fmt.Sprintf("Expense #%d deleted", id))
}

// handleAIExtract runs the free-text form through the extractor and saves
// the result. Extraction failures come back as inline messages; they
// never crash the dashboard.
func (s *Server) handleAIExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.extractor == nil {
		redirectWithErr(w, r, "/", "AI service is not configured")
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithErr(w, r, "/", "Invalid form submission")
		return
	}

	text := strings.TrimSpace(r.Form.Get("text"))
	parsed, err := s.extractor.Extract(r.Context(), text, time.Now())
	if err != nil {
		slog.WarnContext(r.Context(), "Extraction failed", "error", err)
		redirectWithErr(w, r, "/", err.Error())
		return
	}

	// The extractor guarantees shape, not content: coerce before storing.
	e := core.Expense{
		Date:        parsed.Date,
		Category:    core.NormalizeCategory(parsed.Category),
		Amount:      parsed.Amount,
		Description: sanitizeInput(parsed.Description),
	}
	if core.ValidateDate(e.Date) != nil {
		e.Date = core.Today(time.Now())
	}
	if e.Amount < 0 {
		e.Amount = 0
	}

	id, err := s.store.Add(r.Context(), e)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add extracted expense failed", "error", err)
		redirectWithErr(w, r, "/", "Could not save extracted expense")
		return
	}

	s.invalidateReport()
	redirectWithMsg(w, r, "/",
		fmt.Sprintf("AI added %s expense of %s on %s (#%d)", e.Category, formatMoney(e.Amount), e.Date, id))
}

type barRow struct {
	Label  string
	Amount string
	Width  int
}

type analyticsData struct {
	pageData
	HasData    bool
	Total      string
	Count      int
	Mean       string
	ByCategory []barRow
	ByDate     []barRow
}

// handleAnalytics renders the report page. An empty table shows the
// explicit no-data state instead of a zeroed report.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	data := analyticsData{pageData: s.newPageData(r, "Analytics", "analytics")}

	rep, err := s.getReport(r.Context())
	switch {
	case errors.Is(err, report.ErrNoData):
		// HasData stays false; template shows the empty state.
	case err != nil:
		slog.ErrorContext(r.Context(), "Report generation failed", "error", err)
		data.Error = "Could not generate report"
	default:
		data.HasData = true
		data.Total = formatMoney(rep.Total)
		data.Count = rep.Count
		data.Mean = formatMoney(rep.Mean)
		data.ByCategory = barRows(rep.ByCategory, func(c core.CategoryAmount) (string, float64) {
			return c.Name, c.Amount
		})
		data.ByDate = barRows(rep.ByDate, func(d core.DateAmount) (string, float64) {
			return d.Date, d.Amount
		})
	}

	s.render(w, r, "analytics.html", data)
}

// barRows scales amounts to rounded percents of the largest entry so the
// template can draw proportional bars.
func barRows[T any](items []T, fields func(T) (string, float64)) []barRow {
	var max float64
	for _, it := range items {
		if _, v := fields(it); v > max {
			max = v
		}
	}

	rows := make([]barRow, 0, len(items))
	for _, it := range items {
		label, v := fields(it)
		width := 0
		if max > 0 && v > 0 {
			width = int(v/max*100 + 0.5)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		rows = append(rows, barRow{Label: label, Amount: formatMoney(v), Width: width})
	}
	return rows
}

func (s *Server) getReport(ctx context.Context) (core.Report, error) {
	if rep, ok := s.reportCache.Get(reportCacheKey); ok {
		slog.DebugContext(ctx, "Report cache hit")
		return rep, nil
	}

	rep, err := s.reporter.Generate(ctx)
	if err != nil {
		return core.Report{}, err
	}

	s.reportCache.Set(reportCacheKey, rep)
	return rep, nil
}

// handleManage renders the delete/update view over all expenses.
func (s *Server) handleManage(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(r, "Manage", "manage")
	expenses, err := s.store.ListAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		data.Error = "Could not load expenses"
	}
	data.Expenses = expenses

	s.render(w, r, "manage.html", data)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := s.store.ListAll(ctx); err != nil {
		http.Error(w, "storage not reachable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
