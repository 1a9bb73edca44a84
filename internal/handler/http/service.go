package http

import (
	"log/slog"
	"net/http"

	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/pkg/httputil"
)

// ServiceHandler handles HTTP requests for service administration endpoints.
type ServiceHandler struct {
	recalc *service.Recalculator
	logger *slog.Logger
}

// NewServiceHandler creates a new service HTTP handler.
func NewServiceHandler(recalc *service.Recalculator, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{
		recalc: recalc,
		logger: logger,
	}
}

// RefreshReviewStats handles POST /api/services/refresh-review-stats
//
// Recomputes reviewCount and averageRating for every service row. Individual
// failures are counted, not fatal; a partial run still reports what it did.
func (h *ServiceHandler) RefreshReviewStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.recalc.Run(r.Context())
	if err != nil && result == nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err != nil {
		h.logger.WarnContext(r.Context(), "review stats refresh completed with failures",
			slog.Int("total", result.TotalServices),
			slog.Int("updated", result.Updated),
			slog.Int("failed", result.Failed),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
