package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"expenso/internal/core"
	"expenso/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	res, err := s.expenses.List(ctx, identity(r).UserID, parseListingParams(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	cats, err := s.expenses.Categories(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	view := s.listView(res, cats)
	view.Page = s.page(r, "Expenses", "expenses")
	s.render(w, r, http.StatusOK, "expenses.html", view)
}

func (s *Server) handleNewExpense(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, formView{
		Action: "/expenses",
		Input:  core.ExpenseInput{Date: s.today()},
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := parseExpenseInput(w, r)
	if err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	id, err := s.expenses.Add(r.Context(), identity(r).UserID, in)
	if err != nil {
		s.formError(w, r, formView{Action: "/expenses", Input: in}, err)
		return
	}

	atomic.AddInt64(&s.metrics.expensesCreated, 1)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created", log.FieldExpenseID, id)
	redirectWithNotice(w, r, "/expenses", NoticeCreated)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseExpenseID(r)
	if !ok {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}

	e, err := s.expenses.Get(r.Context(), identity(r).UserID, id)
	if errors.Is(err, core.ErrNotFound) {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.renderForm(w, r, http.StatusOK, formView{
		Action:    expensePath(id),
		ExpenseID: id,
		Input:     core.InputFromExpense(e),
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseExpenseID(r)
	if !ok {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}
	in, err := parseExpenseInput(w, r)
	if err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	err = s.expenses.Update(r.Context(), identity(r).UserID, id, in)
	if errors.Is(err, core.ErrNotFound) {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}
	if err != nil {
		s.formError(w, r, formView{Action: expensePath(id), ExpenseID: id, Input: in}, err)
		return
	}
	redirectWithNotice(w, r, "/expenses", NoticeUpdated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseExpenseID(r)
	if !ok {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}

	err := s.expenses.Remove(r.Context(), identity(r).UserID, id)
	if errors.Is(err, core.ErrNotFound) {
		redirectWithNotice(w, r, "/expenses", NoticeNotFound)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	redirectWithNotice(w, r, "/expenses", NoticeDeleted)
}

// formError re-renders the form with the validation message, or falls back
// to the generic error response.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, view formView, err error) {
	status, msg := errorStatus(err)
	if status != http.StatusUnprocessableEntity {
		s.writeServiceError(w, r, err)
		return
	}
	view.Error = msg
	s.renderForm(w, r, status, view)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, view formView) {
	cats, err := s.expenses.Categories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	view.Categories = cats
	title := "Add expense"
	if view.ExpenseID > 0 {
		title = "Edit expense"
	}
	view.Page = s.page(r, title, "expenses")
	s.render(w, r, status, "expense_form.html", view)
}

func (s *Server) today() string {
	return core.Date{Time: s.now()}.String()
}

func expensePath(id int64) string {
	return "/expenses/" + strconv.FormatInt(id, 10)
}
