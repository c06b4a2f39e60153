package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mbolis/survey-desk/model"
)

func (s *Store) getAdmin(ctx context.Context, op string, where string, arg any) (a model.Admin, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash
		FROM admin
		WHERE `+where,
		arg,
	).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	err = storageErr(op, err)
	return
}

func (s *Store) GetAdminByID(ctx context.Context, adminID int) (model.Admin, error) {
	return s.getAdmin(ctx, "db.get_admin", "id = ?", adminID)
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (model.Admin, error) {
	return s.getAdmin(ctx, "db.get_admin_by_username", "username = ?", username)
}

// CreateAdmin provisions an administrator account. passwordHash is stored
// as given: hashing is up to the caller.
func (s *Store) CreateAdmin(ctx context.Context, username string, passwordHash []byte) (adminID int, err error) {
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO admin (username, password_hash) VALUES (?, ?)
		RETURNING id`,
		username,
		passwordHash,
	).Scan(&adminID)
	err = storageErr("db.insert_admin", err)
	return
}

// StoreToken records a refresh token pair issued to username, valid until
// expiration.
func (s *Store) StoreToken(ctx context.Context, username string, tokenID string, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expires_at)
		VALUES (?, ?, ?, ?)`,
		username,
		tokenID,
		refreshTokenID,
		expiration.Unix(),
	)
	return storageErr("db.insert_token", err)
}

// ConsumeToken deletes a stored token pair, so it can be redeemed only
// once, and returns its expiration.
func (s *Store) ConsumeToken(ctx context.Context, username string, tokenID string, refreshTokenID string) (time.Time, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expires_at`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, storageErr("db.consume_token", err)
	}
	return time.Unix(expiresAt, 0), nil
}

// RevokeTokens forgets every refresh token issued to username.
func (s *Store) RevokeTokens(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM token WHERE username = ?`,
		username,
	)
	return storageErr("db.revoke_tokens", err)
}
