package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/pkg/httputil"
	"github.com/meimberg-io/awesomeapps/pkg/pagination"
	"github.com/meimberg-io/awesomeapps/pkg/validator"
)

// MemberHandler handles HTTP requests for member profile, statistics and
// favorite endpoints.
type MemberHandler struct {
	members   *service.MemberService
	favorites *service.FavoriteService
	reviews   *service.ReviewService
	logger    *slog.Logger
}

// NewMemberHandler creates a new member HTTP handler.
func NewMemberHandler(
	members *service.MemberService,
	favorites *service.FavoriteService,
	reviews *service.ReviewService,
	logger *slog.Logger,
) *MemberHandler {
	return &MemberHandler{
		members:   members,
		favorites: favorites,
		reviews:   reviews,
		logger:    logger,
	}
}

// UpdateProfileRequest is the JSON request body for updating a member profile.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=50"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

// FavoriteRequest is the JSON request body for adding or removing a favorite.
type FavoriteRequest struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
}

// GetProfile handles GET /api/members/me
func (h *MemberHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	member, err := h.members.GetProfile(r.Context(), memberID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}

// UpdateProfile handles PUT /api/members/me
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidParam(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	member, err := h.members.UpdateProfile(r.Context(), memberID, &service.UpdateProfileInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}

// GetStatistics handles GET /api/members/me/statistics
func (h *MemberHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	stats, err := h.members.GetStatistics(r.Context(), memberID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// ListReviews handles GET /api/members/me/reviews
func (h *MemberHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	reviews, err := h.reviews.GetMemberReviews(r.Context(), memberID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// AddFavorite handles POST /api/members/me/favorites
func (h *MemberHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidParam(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.favorites.Add(r.Context(), memberID, req.ServiceID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// RemoveFavorite handles DELETE /api/members/me/favorites/{serviceId}
func (h *MemberHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	serviceID, ok := parseIDParam(r, "serviceId")
	if !ok {
		writeInvalidParam(w, "invalid service id")
		return
	}

	result, err := h.favorites.Remove(r.Context(), memberID, serviceID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// CheckFavorite handles GET /api/members/me/favorites/{serviceId}
func (h *MemberHandler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	serviceID, ok := parseIDParam(r, "serviceId")
	if !ok {
		writeInvalidParam(w, "invalid service id")
		return
	}

	isFavorite, err := h.favorites.IsFavorite(r.Context(), memberID, serviceID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]bool{"is_favorite": isFavorite},
	})
}

// ListFavorites handles GET /api/members/me/favorites
func (h *MemberHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDFromRequest(r)
	if !ok {
		writeInvalidParam(w, "X-Member-ID header is required")
		return
	}

	params := pagination.FromRequest(r)

	result, err := h.favorites.List(r.Context(), memberID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(result.Services, result.TotalCount, result.Page, result.PerPage))
}
