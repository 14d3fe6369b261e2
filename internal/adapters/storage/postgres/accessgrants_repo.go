package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/scope"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `
	id, patient_id, granted_to_id, granted_to_role,
	permission, data_types,
	granted_at, expires_at, is_active, revoked_at`

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permission_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		g.ID,
		g.PatientID,
		g.GrantedToID,
		string(g.GrantedToRole),
		string(g.Permission),
		g.DataTypes.Strings(),
		g.GrantedAt,
		toNullTime(g.ExpiresAt),
		g.IsActive,
		toNullTime(g.RevokedAt),
	)
	if isUniqueViolation(err) {
		return accesserr.ErrConflict
	}
	return err
}

// Update solo toca el estado de revocación; el resto del grant es inmutable.
func (r *AccessGrantsRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	id, ok := parseID(g.ID)
	if !ok {
		return accesserr.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE permission_grants
		SET
			is_active = $2,
			revoked_at = $3
		WHERE id = $1::uuid
	`,
		id,
		g.IsActive,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accesserr.ErrNotFound
	}
	return nil
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id, ok := parseID(id)
	if !ok {
		return accessgrants.Grant{}, accesserr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM permission_grants WHERE id = $1::uuid`, id)
	return scanGrant(row)
}

func (r *AccessGrantsRepo) ListByPatient(ctx context.Context, patientID string) ([]accessgrants.Grant, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE patient_id = $1
		ORDER BY granted_at DESC
	`, patientID)
}

func (r *AccessGrantsRepo) ListByRecipient(ctx context.Context, grantedToID string) ([]accessgrants.Grant, error) {
	grantedToID = strings.TrimSpace(grantedToID)
	if grantedToID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE granted_to_id = $1
		ORDER BY granted_at DESC
	`, grantedToID)
}

func (r *AccessGrantsRepo) ListByRecipientAndPatient(ctx context.Context, grantedToID, patientID string) ([]accessgrants.Grant, error) {
	grantedToID = strings.TrimSpace(grantedToID)
	patientID = strings.TrimSpace(patientID)
	if grantedToID == "" || patientID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE granted_to_id = $1
		  AND patient_id = $2
		ORDER BY granted_at DESC
	`, grantedToID, patientID)
}

func (r *AccessGrantsRepo) list(ctx context.Context, query string, args ...any) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(row rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	var role, permission string
	var dataTypes []string
	var expiresAt, revokedAt sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.PatientID,
		&g.GrantedToID,
		&role,
		&permission,
		textArray(&dataTypes),
		&g.GrantedAt,
		&expiresAt,
		&g.IsActive,
		&revokedAt,
	); err != nil {
		return accessgrants.Grant{}, mapNoRows(err)
	}

	set, err := scope.ParseSet(dataTypes)
	if err != nil {
		return accessgrants.Grant{}, fmt.Errorf("grant %s: %w", g.ID, err)
	}
	g.GrantedToRole = accessgrants.Role(role)
	g.Permission = accessgrants.Permission(permission)
	g.DataTypes = set
	g.ExpiresAt = fromNullTime(expiresAt)
	g.RevokedAt = fromNullTime(revokedAt)
	return g, nil
}
