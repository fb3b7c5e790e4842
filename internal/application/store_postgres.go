package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"seva/pkg/platform/sentinel"
)

const (
	applicationTableName = "applications"

	uniqueViolationCode = "23505"
)

var applicationTableColumns = []string{
	"id",
	"reference",
	"user_id",
	"scheme_id",
	"status",
	"document_ids",
	"created_at",
	"updated_at",
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, app Application) error {
	query, args, err := psql().
		Insert(applicationTableName).
		Columns(applicationTableColumns...).
		Values(
			app.ID, app.Reference, app.UserID, app.SchemeID, app.Status,
			app.DocumentIDs, app.CreatedAt, app.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build application insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		// The partial unique index on (user_id, scheme_id) catches the race
		// between two submissions that both passed the service-level check.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Application, error) {
	return s.findOne(ctx, squirrel.Eq{"id": id})
}

func (s *PostgresStore) FindActiveByUserAndScheme(ctx context.Context, userID, schemeID string) (Application, error) {
	return s.findOne(ctx, squirrel.And{
		squirrel.Eq{"user_id": userID, "scheme_id": schemeID},
		squirrel.NotEq{"status": StatusRejected},
	})
}

func (s *PostgresStore) findOne(ctx context.Context, where squirrel.Sqlizer) (Application, error) {
	query, args, err := psql().
		Select(applicationTableColumns...).
		From(applicationTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return Application{}, fmt.Errorf("build application select: %w", err)
	}

	var app Application
	if err := pgxscan.Get(ctx, s.pool, &app, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, sentinel.ErrNotFound
		}
		return Application{}, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Application, error) {
	return s.list(ctx, squirrel.Eq{"user_id": userID})
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Application, error) {
	return s.list(ctx, nil)
}

func (s *PostgresStore) list(ctx context.Context, where squirrel.Sqlizer) ([]Application, error) {
	builder := psql().
		Select(applicationTableColumns...).
		From(applicationTableName).
		OrderBy("created_at DESC", "id ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build application list: %w", err)
	}

	var apps []Application
	if err := pgxscan.Select(ctx, s.pool, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	query, args, err := psql().
		Update(applicationTableName).
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build application status update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
