package http

import (
	"context"
	"log/slog"
	"os"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
)

// Stub repositories with overridable behavior. Handlers are tested through
// real service instances so the full decode -> service -> error-mapping path
// is exercised.

type stubServiceRepo struct {
	getByID          func(ctx context.Context, id int64) (*domain.Service, error)
	getByDocumentID  func(ctx context.Context, documentID string) (*domain.Service, error)
	listIDs          func(ctx context.Context) ([]int64, error)
	updateAggs       func(ctx context.Context, id int64, agg domain.ServiceAggregate) error
	updateAggsByDoc  func(ctx context.Context, documentID string, agg domain.ServiceAggregate) (int64, error)
	listByTags       func(ctx context.Context, tagDocumentIDs []string, sort []repository.SortField) ([]domain.Service, error)
}

func (s *stubServiceRepo) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	return s.getByID(ctx, id)
}

func (s *stubServiceRepo) GetByDocumentID(ctx context.Context, documentID string) (*domain.Service, error) {
	return s.getByDocumentID(ctx, documentID)
}

func (s *stubServiceRepo) ListIDs(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx)
}

func (s *stubServiceRepo) UpdateAggregates(ctx context.Context, id int64, agg domain.ServiceAggregate) error {
	return s.updateAggs(ctx, id, agg)
}

func (s *stubServiceRepo) UpdateAggregatesByDocumentID(ctx context.Context, documentID string, agg domain.ServiceAggregate) (int64, error) {
	return s.updateAggsByDoc(ctx, documentID, agg)
}

func (s *stubServiceRepo) ListByTags(ctx context.Context, tagDocumentIDs []string, sort []repository.SortField) ([]domain.Service, error) {
	return s.listByTags(ctx, tagDocumentIDs, sort)
}

type stubReviewRepo struct {
	create        func(ctx context.Context, review *domain.Review) error
	getByID       func(ctx context.Context, id int64) (*domain.Review, error)
	exists        func(ctx context.Context, memberID, serviceID int64) (bool, error)
	update        func(ctx context.Context, review *domain.Review) error
	delete        func(ctx context.Context, id int64) error
	incHelpful    func(ctx context.Context, id int64) (*domain.Review, error)
	aggregate     func(ctx context.Context, serviceID int64) (domain.RatingSummary, error)
	listByService func(ctx context.Context, serviceID int64, opts repository.ReviewListOptions) ([]domain.Review, int, error)
	listByMember  func(ctx context.Context, memberID int64) ([]domain.Review, error)
	countByMember func(ctx context.Context, memberID int64) (int, error)
}

func (s *stubReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return s.create(ctx, review)
}

func (s *stubReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	return s.getByID(ctx, id)
}

func (s *stubReviewRepo) ExistsForMemberAndService(ctx context.Context, memberID, serviceID int64) (bool, error) {
	return s.exists(ctx, memberID, serviceID)
}

func (s *stubReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	return s.update(ctx, review)
}

func (s *stubReviewRepo) Delete(ctx context.Context, id int64) error {
	return s.delete(ctx, id)
}

func (s *stubReviewRepo) IncrementHelpful(ctx context.Context, id int64) (*domain.Review, error) {
	return s.incHelpful(ctx, id)
}

func (s *stubReviewRepo) AggregateForService(ctx context.Context, serviceID int64) (domain.RatingSummary, error) {
	return s.aggregate(ctx, serviceID)
}

func (s *stubReviewRepo) ListByService(ctx context.Context, serviceID int64, opts repository.ReviewListOptions) ([]domain.Review, int, error) {
	return s.listByService(ctx, serviceID, opts)
}

func (s *stubReviewRepo) ListByMember(ctx context.Context, memberID int64) ([]domain.Review, error) {
	return s.listByMember(ctx, memberID)
}

func (s *stubReviewRepo) CountByMember(ctx context.Context, memberID int64) (int, error) {
	return s.countByMember(ctx, memberID)
}

type stubMemberRepo struct {
	getByID       func(ctx context.Context, id int64) (*domain.Member, error)
	usernameTaken func(ctx context.Context, username string, excludeID int64) (bool, error)
	updateProfile func(ctx context.Context, id int64, username, displayName, bio *string) (*domain.Member, error)
}

func (s *stubMemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return s.getByID(ctx, id)
}

func (s *stubMemberRepo) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	return s.usernameTaken(ctx, username, excludeID)
}

func (s *stubMemberRepo) UpdateProfile(ctx context.Context, id int64, username, displayName, bio *string) (*domain.Member, error) {
	return s.updateProfile(ctx, id, username, displayName, bio)
}

type stubFavoriteRepo struct {
	add           func(ctx context.Context, memberID, serviceID int64) (bool, error)
	remove        func(ctx context.Context, memberID, serviceID int64) (bool, error)
	exists        func(ctx context.Context, memberID, serviceID int64) (bool, error)
	listByMember  func(ctx context.Context, memberID int64, page, perPage int) ([]domain.Service, int, error)
	countByMember func(ctx context.Context, memberID int64) (int, error)
}

func (s *stubFavoriteRepo) Add(ctx context.Context, memberID, serviceID int64) (bool, error) {
	return s.add(ctx, memberID, serviceID)
}

func (s *stubFavoriteRepo) Remove(ctx context.Context, memberID, serviceID int64) (bool, error) {
	return s.remove(ctx, memberID, serviceID)
}

func (s *stubFavoriteRepo) Exists(ctx context.Context, memberID, serviceID int64) (bool, error) {
	return s.exists(ctx, memberID, serviceID)
}

func (s *stubFavoriteRepo) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]domain.Service, int, error) {
	return s.listByMember(ctx, memberID, page, perPage)
}

func (s *stubFavoriteRepo) CountByMember(ctx context.Context, memberID int64) (int, error) {
	return s.countByMember(ctx, memberID)
}

type stubTagRepo struct {
	getByDocumentID func(ctx context.Context, documentID string) (*domain.Tag, error)
	countServices   func(ctx context.Context, tagDocumentIDs []string) (int, error)
	listWithCounts  func(ctx context.Context) ([]domain.TagWithCount, error)
}

func (s *stubTagRepo) GetByDocumentID(ctx context.Context, documentID string) (*domain.Tag, error) {
	return s.getByDocumentID(ctx, documentID)
}

func (s *stubTagRepo) CountServicesWithTags(ctx context.Context, tagDocumentIDs []string) (int, error) {
	return s.countServices(ctx, tagDocumentIDs)
}

func (s *stubTagRepo) ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error) {
	return s.listWithCounts(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
