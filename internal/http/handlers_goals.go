package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	"cofre/internal/goals"
	"cofre/internal/report"
	"cofre/internal/storage"
)

type goalJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	TargetCents  int64             `json:"target_cents"`
	CurrentCents int64             `json:"current_cents"`
	Deadline     string            `json:"deadline,omitempty"`
	CreatedAt    string            `json:"created_at,omitempty"`
	UpdatedAt    string            `json:"updated_at,omitempty"`
	Status       report.GoalStatus `json:"status"`
	Warnings     []report.Warning  `json:"warnings,omitempty"`
}

func toGoalJSON(v goals.View) goalJSON {
	out := goalJSON{
		ID:           v.Goal.ID.String(),
		Name:         v.Goal.Name,
		TargetCents:  v.Goal.Target.Cents,
		CurrentCents: v.Goal.Current.Cents,
		Deadline:     v.Goal.Deadline,
		Status:       v.Status,
		Warnings:     v.Warnings,
	}
	if !v.Goal.CreatedAt.IsZero() {
		out.CreatedAt = v.Goal.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !v.Goal.UpdatedAt.IsZero() {
		out.UpdatedAt = v.Goal.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

type createGoalRequest struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Deadline string `json:"deadline"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Target)
	if err != nil {
		respondValidationError(w, core.ErrInvalidTarget)
		return
	}

	g, err := s.goals.Create(r.Context(), sanitizeInput(req.Name), core.Money{Cents: cents}, sanitizeInput(req.Deadline))
	if err != nil {
		if isValidationError(err) {
			respondValidationError(w, err)
			return
		}
		s.logger.ErrorContext(r.Context(), "Goal create error", "error", err)
		respondInternalError(w)
		return
	}

	v, err := s.goals.Get(r.Context(), g.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Goal readback error", "error", err, "id", g.ID)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusCreated, toGoalJSON(v))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	views, err := s.goals.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Goal list error", "error", err)
		respondInternalError(w)
		return
	}

	items := make([]goalJSON, 0, len(views))
	for _, v := range views {
		items = append(items, toGoalJSON(v))
	}
	respondJSON(w, http.StatusOK, map[string]any{"goals": items})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid goal id")
		return
	}

	v, err := s.goals.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Goal get error", "error", err, "id", id)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, toGoalJSON(v))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid goal id")
		return
	}

	if err := s.goals.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Goal delete error", "error", err, "id", id)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type goalMovementRequest struct {
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurred_at"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	s.handleGoalMovement(w, r, s.goals.Contribute)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleGoalMovement(w, r, s.goals.Withdraw)
}

func (s *Server) handleGoalMovement(
	w http.ResponseWriter,
	r *http.Request,
	move func(ctx context.Context, id uuid.UUID, amount core.Money, occurredAt string) (core.Goal, error),
) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid goal id")
		return
	}

	var req goalMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondValidationError(w, core.ErrInvalidAmount)
		return
	}

	if _, err := move(r.Context(), id, core.Money{Cents: cents}, sanitizeInput(req.OccurredAt)); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondNotFound(w)
		case isValidationError(err):
			respondValidationError(w, err)
		default:
			s.logger.ErrorContext(r.Context(), "Goal movement error", "error", err, "id", id)
			respondInternalError(w)
		}
		return
	}

	v, err := s.goals.Get(r.Context(), id)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Goal readback error", "error", err, "id", id)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, toGoalJSON(v))
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidTarget) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrNegativeCurrent) ||
		errors.Is(err, core.ErrInvalidTimestamp)
}
