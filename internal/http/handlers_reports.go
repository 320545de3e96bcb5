package http

import (
	"context"
	"net/http"
	"time"
)

// reportTimeout bounds dashboard panel queries so a slow range scan never
// hangs the panel.
const reportTimeout = 7 * time.Second

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseRangeFilter(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	rep, err := s.reports.Categories(ctx, filter.Start, filter.End)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category report error",
			"error", err, "start", filter.Start, "end", filter.End)
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCashflowReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseRangeFilter(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	rep, err := s.reports.Cashflow(ctx, filter.Start, filter.End)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Cashflow report error",
			"error", err, "start", filter.Start, "end", filter.End)
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}
