package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/scope"
)

type AccessTokensRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccessTokensRepo(db *sql.DB) *AccessTokensRepo {
	return &AccessTokensRepo{db: db, now: time.Now}
}

const tokenColumns = `
	id, issuer_id, recipient_hint, kind, code_hash,
	scope, expires_at, is_used, used_at, used_by_id, created_at`

// Create falla con ErrConflict si el hash ya existe en un token vivo
// (índice único) o en uno borrado (access_token_retired_codes).
func (r *AccessTokensRepo) Create(ctx context.Context, t accesstokens.Token) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (`+tokenColumns+`)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text,
		       $6::text[], $7::timestamptz, $8::boolean, $9::timestamptz, $10::text, $11::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM access_token_retired_codes WHERE code_hash = $5::text
		)
	`,
		t.ID,
		t.IssuerID,
		t.RecipientHint,
		string(t.Kind),
		t.CodeHash,
		t.Scope.Strings(),
		t.ExpiresAt,
		t.IsUsed,
		toNullTime(t.UsedAt),
		toNullString(t.UsedByID),
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return accesserr.ErrConflict
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accesserr.ErrConflict
	}
	return nil
}

func (r *AccessTokensRepo) GetByID(ctx context.Context, id string) (accesstokens.Token, error) {
	id, ok := parseID(id)
	if !ok {
		return accesstokens.Token{}, accesserr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE id = $1::uuid`, id)
	return scanToken(row)
}

func (r *AccessTokensRepo) GetByCodeHash(ctx context.Context, codeHash string) (accesstokens.Token, error) {
	if codeHash == "" {
		return accesstokens.Token{}, accesserr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE code_hash = $1`, codeHash)
	return scanToken(row)
}

func (r *AccessTokensRepo) ListByIssuer(ctx context.Context, issuerID string) ([]accesstokens.Token, error) {
	issuerID = strings.TrimSpace(issuerID)
	if issuerID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tokenColumns+`
		FROM access_tokens
		WHERE issuer_id = $1
		ORDER BY created_at DESC
	`, issuerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accesstokens.Token, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkUsed es el único punto de serialización del canje: un solo UPDATE
// condicional. Si otro request ganó, RowsAffected es 0.
func (r *AccessTokensRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time, usedByID string) (bool, error) {
	id, ok := parseID(id)
	if !ok {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_tokens
		SET
			is_used = TRUE,
			used_at = $2,
			used_by_id = $3
		WHERE id = $1::uuid
		  AND is_used = FALSE
		  AND expires_at > $2
	`, id, usedAt, usedByID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete borra la fila y retira su hash en la misma sentencia.
func (r *AccessTokensRepo) Delete(ctx context.Context, id string) error {
	id, ok := parseID(id)
	if !ok {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		WITH gone AS (
			DELETE FROM access_tokens WHERE id = $1::uuid RETURNING code_hash
		)
		INSERT INTO access_token_retired_codes (code_hash, retired_at)
		SELECT code_hash, $2 FROM gone
		ON CONFLICT (code_hash) DO NOTHING
	`, id, r.now())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (accesstokens.Token, error) {
	var t accesstokens.Token
	var kind string
	var scopes []string
	var usedAt sql.NullTime
	var usedByID sql.NullString

	if err := row.Scan(
		&t.ID,
		&t.IssuerID,
		&t.RecipientHint,
		&kind,
		&t.CodeHash,
		textArray(&scopes),
		&t.ExpiresAt,
		&t.IsUsed,
		&usedAt,
		&usedByID,
		&t.CreatedAt,
	); err != nil {
		return accesstokens.Token{}, mapNoRows(err)
	}

	set, err := scope.ParseSet(scopes)
	if err != nil {
		return accesstokens.Token{}, fmt.Errorf("token %s: %w", t.ID, err)
	}
	t.Kind = scope.Kind(kind)
	t.Scope = set
	t.UsedAt = fromNullTime(usedAt)
	t.UsedByID = usedByID.String
	return t, nil
}
