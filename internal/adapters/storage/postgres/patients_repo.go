package postgres

import (
	"context"
	"database/sql"
	"strings"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/patients"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Upsert(ctx context.Context, p patients.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patient_profiles (id, name, email, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.Name,
		p.Email,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.Profile{}, accesserr.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patient_profiles
		WHERE id = $1
	`, id)

	var p patients.Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return patients.Profile{}, mapNoRows(err)
	}
	return p, nil
}
