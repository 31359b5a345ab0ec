package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docshare/internal/utils"
	"docshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "docshare.users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID int64) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user-by-email query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, email, pinHash string) (*types.User, error) {
	now := time.Now()
	user := &types.User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		PINHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query, args, err := psql().
		Insert(userTableName).
		Columns("email", "pin_hash", "created_at", "updated_at").
		Values(user.Email, user.PINHash, user.CreatedAt, user.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate create user query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, types.ErrEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
