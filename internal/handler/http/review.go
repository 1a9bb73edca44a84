package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meimberg-io/awesomeapps/internal/repository"
	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/pkg/httputil"
	"github.com/meimberg-io/awesomeapps/pkg/validator"
)

// memberIDHeader carries the authenticated member id, resolved by the
// upstream auth layer.
const memberIDHeader = "X-Member-ID"

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review. The
// target service may be given by numeric id or by documentId.
type CreateReviewRequest struct {
	ReviewText        string `json:"reviewtext" validate:"required"`
	Voting            int    `json:"voting" validate:"required,gte=1,lte=5"`
	ServiceID         int64  `json:"service_id"`
	ServiceDocumentID string `json:"service_document_id"`
}

// UpdateReviewRequest is the JSON request body for updating a review.
type UpdateReviewRequest struct {
	ReviewText *string `json:"reviewtext"`
	Voting     *int    `json:"voting"`
	MemberID   int64   `json:"member_id"`
}

// --- Helpers ---

func memberIDFromRequest(r *http.Request) (int64, bool) {
	raw := r.Header.Get(memberIDHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeInvalidParam(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}

// --- Handlers ---

// Create handles POST /api/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidParam(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateReviewInput{
		MemberID:          memberID,
		ServiceID:         req.ServiceID,
		ServiceDocumentID: req.ServiceDocumentID,
		ReviewText:        req.ReviewText,
		Voting:            req.Voting,
	}

	review, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// Update handles PUT /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidParam(w, "invalid review id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidParam(w, "invalid request body: "+err.Error())
		return
	}

	memberID, ok := memberIDFromRequest(r)
	if !ok {
		memberID = req.MemberID
	}
	if memberID <= 0 {
		writeInvalidParam(w, "member_id is required")
		return
	}

	input := &service.UpdateReviewInput{
		ReviewText: req.ReviewText,
		Voting:     req.Voting,
	}

	review, err := h.service.Update(r.Context(), reviewID, memberID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// Delete handles DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidParam(w, "invalid review id")
		return
	}

	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	if err := h.service.Delete(r.Context(), reviewID, memberID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"deleted": true},
	})
}

// IncrementHelpful handles POST /api/reviews/{id}/helpful
func (h *ReviewHandler) IncrementHelpful(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidParam(w, "invalid review id")
		return
	}

	review, err := h.service.IncrementHelpful(r.Context(), reviewID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ListByService handles GET /api/reviews/service/{serviceId}
func (h *ReviewHandler) ListByService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := parseIDParam(r, "serviceId")
	if !ok {
		writeInvalidParam(w, "invalid service id")
		return
	}

	opts := repository.ReviewListOptions{
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 {
			opts.PageSize = ps
		}
	}

	result, err := h.service.GetServiceReviews(r.Context(), serviceID, opts)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data": result.Reviews,
		"pagination": map[string]any{
			"page":      result.Page,
			"pageSize":  result.PageSize,
			"pageCount": result.PageCount,
			"total":     result.TotalCount,
		},
	})
}

// AverageRating handles GET /api/reviews/service/{serviceId}/average
func (h *ReviewHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := parseIDParam(r, "serviceId")
	if !ok {
		writeInvalidParam(w, "invalid service id")
		return
	}

	summary, err := h.service.GetServiceAverageRating(r.Context(), serviceID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
