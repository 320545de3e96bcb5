package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	"cofre/internal/report"
	"cofre/internal/storage"
)

type transactionJSON struct {
	ID            string `json:"id"`
	OccurredAt    string `json:"occurred_at"`
	AmountCents   int64  `json:"amount_cents"`
	Amount        string `json:"amount"`
	Direction     string `json:"direction"`
	Category      string `json:"category"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:            tx.ID.String(),
		OccurredAt:    tx.OccurredAt,
		AmountCents:   tx.Amount.Cents,
		Amount:        core.FormatCents(tx.Amount.Cents),
		Direction:     string(tx.Direction),
		Category:      tx.Category,
		PaymentMethod: tx.PaymentMethod,
		Description:   tx.Description,
	}
	if !tx.CreatedAt.IsZero() {
		out.CreatedAt = tx.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

type createTransactionRequest struct {
	OccurredAt    string `json:"occurred_at"`
	Amount        string `json:"amount"`
	Direction     string `json:"direction"`
	Category      string `json:"category"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondValidationError(w, core.ErrInvalidAmount)
		return
	}

	tx := core.Transaction{
		ID:            uuid.New(),
		OccurredAt:    sanitizeInput(req.OccurredAt),
		Amount:        core.Money{Cents: cents},
		Direction:     core.Direction(sanitizeInput(req.Direction)),
		Category:      sanitizeInput(req.Category),
		PaymentMethod: sanitizeInput(req.PaymentMethod),
		Description:   sanitizeInput(req.Description),
	}
	if err := tx.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := s.store.InsertTransaction(r.Context(), tx); err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction insert error", "error", err)
		respondInternalError(w)
		return
	}

	s.afterTransactionWrite(r, tx.ID, "append")

	respondJSON(w, http.StatusCreated, toTransactionJSON(tx.Normalize()))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseRangeFilter(w, r)
	if !ok {
		return
	}

	if d := sanitizeInput(r.URL.Query().Get("direction")); d != "" {
		dir := core.Direction(d)
		if err := dir.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid direction")
			return
		}
		filter.Direction = dir
	}

	transactions, err := s.store.TransactionsInRange(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction list error", "error", err)
		respondInternalError(w)
		return
	}

	items := make([]transactionJSON, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, toTransactionJSON(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": items})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid transaction id")
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Transaction delete error", "error", err, "id", id)
		respondInternalError(w)
		return
	}

	s.afterTransactionWrite(r, id, "delete")

	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	dir := core.Direction(sanitizeInput(r.URL.Query().Get("direction")))
	if dir == "" {
		dir = core.Outflow
	}
	if err := dir.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid direction")
		return
	}

	names, err := s.store.KnownCategories(r.Context(), dir)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category list error", "error", err)
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"categories": names})
}

// afterTransactionWrite queues the export and publishes the change event.
// Both are best effort; the write is already committed.
func (s *Server) afterTransactionWrite(r *http.Request, id uuid.UUID, operation string) {
	ctx := r.Context()
	if err := s.store.EnqueueExport(ctx, "transaction", id.String(), operation); err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue export", "id", id, "error", err)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, "transaction", id.String(), operation); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record change", "id", id, "error", err)
	}
}

// parseRangeFilter reads the required start/end day keys from the query.
func parseRangeFilter(w http.ResponseWriter, r *http.Request) (report.Filter, bool) {
	start := sanitizeInput(r.URL.Query().Get("start"))
	end := sanitizeInput(r.URL.Query().Get("end"))

	startKey, err := core.DayKey(start)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid start date, want YYYY-MM-DD")
		return report.Filter{}, false
	}
	endKey, err := core.DayKey(end)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid end date, want YYYY-MM-DD")
		return report.Filter{}, false
	}
	start, end = startKey, endKey
	if end < start {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "end date before start date")
		return report.Filter{}, false
	}

	return report.Filter{Start: start, End: end}, true
}
