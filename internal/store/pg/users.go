package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kozhinae/fastauth/internal/auth"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, email, password_hash, first_name, last_name, middle_name, is_active, is_staff, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, password_hash, first_name, last_name, middle_name, is_active, is_staff, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Email, u.PasswordHash,
		nullIfEmpty(u.FirstName), nullIfEmpty(u.LastName), nullIfEmpty(u.MiddleName),
		u.IsActive, u.IsStaff, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email))
}

func (s *userStore) UpdateProfile(ctx context.Context, userID string, upd auth.ProfileUpdate) (*auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.FirstName != nil {
		sets = append(sets, fmt.Sprintf("first_name = $%d", idx))
		args = append(args, nullIfEmpty(*upd.FirstName))
		idx++
	}
	if upd.LastName != nil {
		sets = append(sets, fmt.Sprintf("last_name = $%d", idx))
		args = append(args, nullIfEmpty(*upd.LastName))
		idx++
	}
	if upd.MiddleName != nil {
		sets = append(sets, fmt.Sprintf("middle_name = $%d", idx))
		args = append(args, nullIfEmpty(*upd.MiddleName))
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, userID)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return s.Find(ctx, userID)
}

func (s *userStore) Deactivate(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set is_active = false, updated_at = now() where id = $1`, userID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *userStore) scanOne(row *sql.Row) (*auth.User, error) {
	var (
		u                   auth.User
		first, last, middle sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last, &middle,
		&u.IsActive, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.FirstName = first.String
	u.LastName = last.String
	u.MiddleName = middle.String
	return &u, nil
}
