package profiles

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateProfile(ctx context.Context, profile *Profile) error
	GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateProfile(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO profiles (
			id, role, organization_name, registration_number, email,
			verification_status, created_at, updated_at
		) VALUES (
			:id, :role, :organization_name, :registration_number, :email,
			:verification_status, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, profile)
	return err
}

// GetProfileByID returns nil without error when no profile exists.
func (r *postgresRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := r.db.GetContext(ctx, &profile, "SELECT * FROM profiles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, profile *Profile) error {
	query := `
		UPDATE profiles SET
			organization_name = :organization_name,
			registration_number = :registration_number,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, profile)
	return err
}
