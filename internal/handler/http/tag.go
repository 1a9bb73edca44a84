package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/pkg/httputil"
)

// TagHandler handles HTTP requests for tag endpoints.
type TagHandler struct {
	service *service.TagService
	logger  *slog.Logger
}

// NewTagHandler creates a new tag HTTP handler.
func NewTagHandler(svc *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/tags
//
// Returns all published tags with the number of published services attached
// to each.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tags})
}

// CountServices handles GET /api/tags/{documentId}/count
//
// The optional additionalTags query parameter is a comma-separated list of
// tag documentIds that narrows the count to services carrying every tag.
func (h *TagHandler) CountServices(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentId")
	if documentID == "" {
		writeInvalidParam(w, "tag documentId is required")
		return
	}

	var additional []string
	if raw := r.URL.Query().Get("additionalTags"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				additional = append(additional, id)
			}
		}
	}

	count, err := h.service.CountServices(r.Context(), documentID, additional)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]int{"count": count},
	})
}

// ServicesByTags handles GET /api/services/by-tags
//
// The tags query parameter is a comma-separated list of tag documentIds; an
// empty list returns every published service. The sort parameter is a comma
// list of "field:direction" pairs.
func (h *TagHandler) ServicesByTags(w http.ResponseWriter, r *http.Request) {
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				tags = append(tags, id)
			}
		}
	}

	services, err := h.service.ServicesByTags(r.Context(), tags, r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: services})
}
