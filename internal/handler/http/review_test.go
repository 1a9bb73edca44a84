package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	"github.com/meimberg-io/awesomeapps/internal/service"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
	"github.com/meimberg-io/awesomeapps/pkg/httputil"
)

// =============================================================================
// Test helpers
// =============================================================================

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func publishedTestService(id int64, documentID string) *domain.Service {
	pub := testTime
	return &domain.Service{
		ID:          id,
		DocumentID:  documentID,
		Name:        "Alpha",
		Slug:        "alpha",
		Locale:      "en",
		PublishedAt: &pub,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}

func activeTestMember(id int64) *domain.Member {
	return &domain.Member{
		ID:        id,
		Email:     "alice@example.com",
		Username:  "alice",
		IsActive:  true,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func sampleTestReview() *domain.Review {
	return &domain.Review{
		ID:          10,
		ReviewText:  "Solid service, would use again.",
		Voting:      4,
		MemberID:    7,
		ServiceID:   3,
		IsPublished: true,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}

// happyReviewStubs returns stub repos preloaded with one published service,
// one member and a clean aggregate path, so tests only override what they
// exercise.
func happyReviewStubs() (*stubReviewRepo, *stubMemberRepo, *stubServiceRepo) {
	svc := publishedTestService(3, "doc-3")

	services := &stubServiceRepo{
		getByID: func(_ context.Context, id int64) (*domain.Service, error) {
			if id != svc.ID {
				return nil, apperrors.NotFound("service", "99")
			}
			return svc, nil
		},
		getByDocumentID: func(_ context.Context, documentID string) (*domain.Service, error) {
			if documentID != svc.DocumentID {
				return nil, apperrors.NotFound("service", documentID)
			}
			return svc, nil
		},
		updateAggsByDoc: func(_ context.Context, _ string, _ domain.ServiceAggregate) (int64, error) {
			return 2, nil
		},
	}

	members := &stubMemberRepo{
		getByID: func(_ context.Context, id int64) (*domain.Member, error) {
			return activeTestMember(id), nil
		},
	}

	reviews := &stubReviewRepo{
		exists: func(_ context.Context, _, _ int64) (bool, error) {
			return false, nil
		},
		create: func(_ context.Context, review *domain.Review) error {
			review.ID = 10
			review.CreatedAt = testTime
			review.UpdatedAt = testTime
			return nil
		},
		aggregate: func(_ context.Context, _ int64) (domain.RatingSummary, error) {
			return domain.RatingSummary{Average: 4, Count: 1}, nil
		},
	}

	return reviews, members, services
}

func reviewTestRouter(reviews *stubReviewRepo, members *stubMemberRepo, services *stubServiceRepo) *chi.Mux {
	agg := service.NewAggregateUpdater(services, reviews, testLogger())
	svc := service.NewReviewService(reviews, members, services, agg, nil, testLogger())
	handler := NewReviewHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Route("/api/reviews", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
		r.Post("/{id}/helpful", handler.IncrementHelpful)
		r.Get("/service/{serviceId}", handler.ListByService)
		r.Get("/service/{serviceId}/average", handler.AverageRating)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func validCreateReviewJSON() []byte {
	b, _ := json.Marshal(CreateReviewRequest{
		ReviewText: "Solid service, would use again.",
		Voting:     4,
		ServiceID:  3,
	})
	return b
}

// =============================================================================
// POST /api/reviews - Create
// =============================================================================

func TestCreateReview_Success(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(validCreateReviewJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)

	var review domain.Review
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &review))
	assert.Equal(t, int64(10), review.ID)
	assert.Equal(t, int64(7), review.MemberID)
	assert.Equal(t, int64(3), review.ServiceID)
	assert.True(t, review.IsPublished)
}

func TestCreateReview_ByDocumentID(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	router := reviewTestRouter(reviews, members, services)

	b, _ := json.Marshal(CreateReviewRequest{
		ReviewText:        "Solid service, would use again.",
		Voting:            5,
		ServiceDocumentID: "doc-3",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateReview_MissingMemberHeader(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(validCreateReviewJSON()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, memberIDHeader)
}

func TestCreateReview_InvalidJSON(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid request body")
}

func TestCreateReview_ValidationError(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	// Missing reviewtext and voting.
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{"service_id": 3}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateReview_TextTooShort(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	b, _ := json.Marshal(CreateReviewRequest{
		ReviewText: "too short",
		Voting:     4,
		ServiceID:  3,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestCreateReview_Duplicate(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.exists = func(_ context.Context, _, _ int64) (bool, error) {
		return true, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(validCreateReviewJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_REVIEW", resp.Error.Code)
}

func TestCreateReview_UnknownService(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	router := reviewTestRouter(reviews, members, services)

	b, _ := json.Marshal(CreateReviewRequest{
		ReviewText: "Solid service, would use again.",
		Voting:     4,
		ServiceID:  99,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// =============================================================================
// PUT /api/reviews/{id} - Update
// =============================================================================

func TestUpdateReview_Success(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	existing := sampleTestReview()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return existing, nil
	}
	reviews.update = func(_ context.Context, _ *domain.Review) error {
		return nil
	}
	router := reviewTestRouter(reviews, members, services)

	b, _ := json.Marshal(UpdateReviewRequest{Voting: intPointer(5)})

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/10", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, 5, existing.Voting)
}

func TestUpdateReview_NotOwner(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return sampleTestReview(), nil
	}
	router := reviewTestRouter(reviews, members, services)

	b, _ := json.Marshal(UpdateReviewRequest{Voting: intPointer(1)})

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/10", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "8")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestUpdateReview_MemberIDFromBody(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	existing := sampleTestReview()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return existing, nil
	}
	reviews.update = func(_ context.Context, _ *domain.Review) error {
		return nil
	}
	router := reviewTestRouter(reviews, members, services)

	// No auth header; the legacy body field carries the member id.
	b, _ := json.Marshal(UpdateReviewRequest{Voting: intPointer(3), MemberID: 7})

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/10", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateReview_NotFound(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return nil, apperrors.NotFound("review", "10")
	}
	router := reviewTestRouter(reviews, members, services)

	b, _ := json.Marshal(UpdateReviewRequest{Voting: intPointer(5)})

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/10", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReview_InvalidID(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodPut, "/api/reviews/abc", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// DELETE /api/reviews/{id} - Delete
// =============================================================================

func TestDeleteReview_Success(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return sampleTestReview(), nil
	}
	deleted := false
	reviews.delete = func(_ context.Context, id int64) error {
		deleted = true
		assert.Equal(t, int64(10), id)
		return nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/10", nil)
	req.Header.Set(memberIDHeader, "7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, deleted)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
}

func TestDeleteReview_NotOwner(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.getByID = func(_ context.Context, _ int64) (*domain.Review, error) {
		return sampleTestReview(), nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/10", nil)
	req.Header.Set(memberIDHeader, "8")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteReview_MissingMemberHeader(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// POST /api/reviews/{id}/helpful - IncrementHelpful
// =============================================================================

func TestIncrementHelpful_Success(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.incHelpful = func(_ context.Context, _ int64) (*domain.Review, error) {
		review := sampleTestReview()
		review.HelpfulCount = 3
		return review, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews/10/helpful", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var review domain.Review
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &review))
	assert.Equal(t, 3, review.HelpfulCount)
}

func TestIncrementHelpful_NotFound(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.incHelpful = func(_ context.Context, _ int64) (*domain.Review, error) {
		return nil, apperrors.NotFound("review", "10")
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews/10/helpful", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GET /api/reviews/service/{serviceId} - ListByService
// =============================================================================

func TestListServiceReviews_Success(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.listByService = func(_ context.Context, serviceID int64, opts repository.ReviewListOptions) ([]domain.Review, int, error) {
		assert.Equal(t, int64(3), serviceID)
		assert.Equal(t, 2, opts.Page)
		assert.Equal(t, 5, opts.PageSize)
		assert.Equal(t, "desc", opts.SortOrder)
		return []domain.Review{*sampleTestReview()}, 11, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/service/3?page=2&pageSize=5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []domain.Review `json:"data"`
		Pagination struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			PageCount int `json:"pageCount"`
			Total     int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 5, body.Pagination.PageSize)
	assert.Equal(t, 3, body.Pagination.PageCount)
	assert.Equal(t, 11, body.Pagination.Total)
}

func TestListServiceReviews_DefaultPagination(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.listByService = func(_ context.Context, _ int64, opts repository.ReviewListOptions) ([]domain.Review, int, error) {
		assert.Equal(t, 1, opts.Page)
		assert.Equal(t, 10, opts.PageSize)
		return []domain.Review{}, 0, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/service/3", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListServiceReviews_InvalidServiceID(t *testing.T) {
	router := reviewTestRouter(happyReviewStubs())

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/service/zero", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// GET /api/reviews/service/{serviceId}/average - AverageRating
// =============================================================================

func TestServiceAverageRating_Success(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.aggregate = func(_ context.Context, _ int64) (domain.RatingSummary, error) {
		return domain.RatingSummary{Average: 10.0 / 3.0, Count: 3}, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/service/3/average", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.RatingSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3.3, resp.Data.Average)
	assert.Equal(t, 3, resp.Data.Count)
}

func TestServiceAverageRating_NoReviews(t *testing.T) {
	reviews, members, services := happyReviewStubs()
	reviews.aggregate = func(_ context.Context, _ int64) (domain.RatingSummary, error) {
		return domain.RatingSummary{}, nil
	}
	router := reviewTestRouter(reviews, members, services)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/service/3/average", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.RatingSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Zero(t, resp.Data.Average)
	assert.Zero(t, resp.Data.Count)
}

func intPointer(v int) *int { return &v }
