package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
)

// --- Mock Repositories ---

type mockServiceRepository struct {
	mock.Mock
}

func (m *mockServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *mockServiceRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.Service, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *mockServiceRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockServiceRepository) UpdateAggregates(ctx context.Context, id int64, agg domain.ServiceAggregate) error {
	args := m.Called(ctx, id, agg)
	return args.Error(0)
}

func (m *mockServiceRepository) UpdateAggregatesByDocumentID(ctx context.Context, documentID string, agg domain.ServiceAggregate) (int64, error) {
	args := m.Called(ctx, documentID, agg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockServiceRepository) ListByTags(ctx context.Context, tagDocumentIDs []string, sort []repository.SortField) ([]domain.Service, error) {
	args := m.Called(ctx, tagDocumentIDs, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ExistsForMemberAndService(ctx context.Context, memberID, serviceID int64) (bool, error) {
	args := m.Called(ctx, memberID, serviceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) IncrementHelpful(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) AggregateForService(ctx context.Context, serviceID int64) (domain.RatingSummary, error) {
	args := m.Called(ctx, serviceID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) ListByService(ctx context.Context, serviceID int64, opts repository.ReviewListOptions) ([]domain.Review, int, error) {
	args := m.Called(ctx, serviceID, opts)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByMember(ctx context.Context, memberID int64) ([]domain.Review, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) CountByMember(ctx context.Context, memberID int64) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

type mockMemberRepository struct {
	mock.Mock
}

func (m *mockMemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *mockMemberRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMemberRepository) UpdateProfile(ctx context.Context, id int64, username, displayName, bio *string) (*domain.Member, error) {
	args := m.Called(ctx, id, username, displayName, bio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, memberID, serviceID int64) (bool, error) {
	args := m.Called(ctx, memberID, serviceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, memberID, serviceID int64) (bool, error) {
	args := m.Called(ctx, memberID, serviceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) Exists(ctx context.Context, memberID, serviceID int64) (bool, error) {
	args := m.Called(ctx, memberID, serviceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]domain.Service, int, error) {
	args := m.Called(ctx, memberID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Service), args.Int(1), args.Error(2)
}

func (m *mockFavoriteRepository) CountByMember(ctx context.Context, memberID int64) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

type mockTagRepository struct {
	mock.Mock
}

func (m *mockTagRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.Tag, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *mockTagRepository) CountServicesWithTags(ctx context.Context, tagDocumentIDs []string) (int, error) {
	args := m.Called(ctx, tagDocumentIDs)
	return args.Int(0), args.Error(1)
}

func (m *mockTagRepository) ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TagWithCount), args.Error(1)
}

// --- Mock Event Publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishReviewDeleted(ctx context.Context, reviewID, serviceID int64) error {
	args := m.Called(ctx, reviewID, serviceID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
