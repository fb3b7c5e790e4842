package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"seva/pkg/platform/sentinel"
)

const userTableName = "users"

var userTableColumns = []string{
	"id",
	"name",
	"email",
	"password_hash",
	"is_admin",
	"created_at",
}

const uniqueViolationCode = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, user User) error {
	query, args, err := psql().
		Insert(userTableName).
		Columns(userTableColumns...).
		Values(
			user.ID, user.Name, strings.ToLower(user.Email),
			user.PasswordHash, user.IsAdmin, user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findOne(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.findOne(ctx, squirrel.Eq{"id": id})
}

func (s *PostgresStore) findOne(ctx context.Context, where squirrel.Sqlizer) (User, error) {
	query, args, err := psql().
		Select(userTableColumns...).
		From(userTableName).
		Where(where).
		ToSql()
	if err != nil {
		return User{}, fmt.Errorf("build user select: %w", err)
	}

	var user User
	if err := pgxscan.Get(ctx, s.pool, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
