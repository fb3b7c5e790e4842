package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"seva/pkg/platform/sentinel"
)

const documentTableName = "documents"

var documentTableColumns = []string{
	"id",
	"user_id",
	"document_type",
	"file_name",
	"file_size_bytes",
	"storage_key",
	"status",
	"is_verified",
	"confidence_score",
	"verification_errors",
	"uploaded_at",
	"verified_at",
}

// PostgresStore persists document records. The UNIQUE (user_id, document_type)
// constraint backs the supersede-on-reupload semantics.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	query, args, err := psql().
		Insert(documentTableName).
		Columns(documentTableColumns...).
		Values(
			rec.ID, rec.UserID, rec.Type, rec.FileName, rec.FileSizeBytes,
			rec.StorageKey, rec.Status, rec.IsVerified, rec.ConfidenceScore,
			rec.VerificationErrors, rec.UploadedAt, rec.VerifiedAt,
		).
		Suffix(`ON CONFLICT (user_id, document_type) DO UPDATE SET
			id = EXCLUDED.id,
			file_name = EXCLUDED.file_name,
			file_size_bytes = EXCLUDED.file_size_bytes,
			storage_key = EXCLUDED.storage_key,
			status = EXCLUDED.status,
			is_verified = EXCLUDED.is_verified,
			confidence_score = EXCLUDED.confidence_score,
			verification_errors = EXCLUDED.verification_errors,
			uploaded_at = EXCLUDED.uploaded_at,
			verified_at = EXCLUDED.verified_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build document upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	query, args, err := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC", "document_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build document list: %w", err)
	}

	var recs []Record
	if err := pgxscan.Select(ctx, s.pool, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) FindByUserAndType(ctx context.Context, userID string, docType DocumentType) (Record, error) {
	query, args, err := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(squirrel.Eq{"user_id": userID, "document_type": docType}).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build document select: %w", err)
	}

	var rec Record
	if err := pgxscan.Get(ctx, s.pool, &rec, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("find document: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, userID string, docType DocumentType, status Status) error {
	query, args, err := psql().
		Update(documentTableName).
		Set("status", status).
		Where(squirrel.Eq{"user_id": userID, "document_type": docType}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build document status update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ApplyResult(ctx context.Context, userID string, docType DocumentType, result VerificationResult, at time.Time) error {
	status := StatusFailed
	if result.IsValid {
		status = StatusVerified
	}

	query, args, err := psql().
		Update(documentTableName).
		Set("status", status).
		Set("is_verified", result.IsValid).
		Set("confidence_score", result.ConfidenceScore).
		Set("verification_errors", result.Errors).
		Set("verified_at", at).
		Where(squirrel.Eq{"user_id": userID, "document_type": docType}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build document result update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("apply verification result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
