package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// MemberRepository implements member persistence operations using PostgreSQL.
type MemberRepository struct {
	pool database.DBTX
}

// NewMemberRepository creates a new PostgreSQL-backed member repository.
func NewMemberRepository(pool database.DBTX) *MemberRepository {
	return &MemberRepository{pool: pool}
}

const memberColumns = `id, email, username, display_name, avatar_url, bio, is_active, last_login, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(
		&m.ID,
		&m.Email,
		&m.Username,
		&m.DisplayName,
		&m.AvatarURL,
		&m.Bio,
		&m.IsActive,
		&m.LastLogin,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID retrieves a member by id.
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	m, err := scanMember(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("member", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}

	return m, nil
}

// UsernameTaken reports whether another member already uses the username.
func (r *MemberRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE username = $1 AND id <> $2)`

	var taken bool
	if err := r.pool.QueryRow(ctx, query, username, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check username taken: %w", err)
	}

	return taken, nil
}

// UpdateProfile persists the non-nil profile fields and returns the updated member.
func (r *MemberRepository) UpdateProfile(ctx context.Context, id int64, username, displayName, bio *string) (*domain.Member, error) {
	query := `
		UPDATE members
		SET username = COALESCE($2, username),
		    display_name = COALESCE($3, display_name),
		    bio = COALESCE($4, bio),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + memberColumns

	m, err := scanMember(r.pool.QueryRow(ctx, query, id, username, displayName, bio))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("member", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("update member profile: %w", err)
	}

	return m, nil
}
