package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"seva/pkg/platform/sentinel"
)

const profileTableName = "profiles"

var profileTableColumns = []string{
	"user_id",
	"name",
	"contact",
	"age",
	"sex",
	"marital_status",
	"location",
	"family_size",
	"annual_income",
	"residence_type",
	"social_category",
	"is_disabled",
	"disability_percent",
	"is_minority",
	"is_student",
	"employment_status",
	"is_govt_employee",
	"land_size_acres",
	"updated_at",
}

// PostgresStore persists profiles, one row per user.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, p Profile) error {
	query, args, err := psql().
		Insert(profileTableName).
		Columns(profileTableColumns...).
		Values(
			p.UserID, p.Name, p.Contact, p.Age, p.Sex, p.MaritalStatus,
			p.Location, p.FamilySize, p.AnnualIncome, p.ResidenceType,
			p.SocialCategory, p.IsDisabled, p.DisabilityPercent, p.IsMinority,
			p.IsStudent, p.EmploymentStatus, p.IsGovtEmployee, p.LandSizeAcres,
			p.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			contact = EXCLUDED.contact,
			age = EXCLUDED.age,
			sex = EXCLUDED.sex,
			marital_status = EXCLUDED.marital_status,
			location = EXCLUDED.location,
			family_size = EXCLUDED.family_size,
			annual_income = EXCLUDED.annual_income,
			residence_type = EXCLUDED.residence_type,
			social_category = EXCLUDED.social_category,
			is_disabled = EXCLUDED.is_disabled,
			disability_percent = EXCLUDED.disability_percent,
			is_minority = EXCLUDED.is_minority,
			is_student = EXCLUDED.is_student,
			employment_status = EXCLUDED.employment_status,
			is_govt_employee = EXCLUDED.is_govt_employee,
			land_size_acres = EXCLUDED.land_size_acres,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build profile upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (Profile, error) {
	query, args, err := psql().
		Select(profileTableColumns...).
		From(profileTableName).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return Profile{}, fmt.Errorf("build profile select: %w", err)
	}

	var p Profile
	if err := pgxscan.Get(ctx, s.pool, &p, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, sentinel.ErrNotFound
		}
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
