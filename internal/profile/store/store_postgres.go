package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"veridion/internal/profile/models"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
	txcontext "veridion/pkg/platform/tx"
)

const uniqueViolation = "23505"

const profileColumns = `id, wallet, name, surnames, email, avatar_url, wallet_type,
		login_count, last_login_at, last_login_device, created_at, updated_at`

// PostgresStore persists profiles in the profiles table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txcontext.Use(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.Wallet.String(), p.Name, p.Surnames, p.Email, p.AvatarURL, p.WalletType,
		p.LoginCount, nullTime(p.LastLoginAt), p.LastLoginDevice, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByWallet(ctx context.Context, wallet domain.IdentityKey) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE wallet = $1`

	var (
		p         models.Profile
		walletStr string
		lastLogin sql.NullTime
	)
	err := txcontext.Use(ctx, s.db).QueryRowContext(ctx, query, wallet.String()).Scan(
		&p.ID, &walletStr, &p.Name, &p.Surnames, &p.Email, &p.AvatarURL, &p.WalletType,
		&p.LoginCount, &lastLogin, &p.LastLoginDevice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.Wallet = domain.IdentityKey(walletStr)
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	return &p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET name = $2, surnames = $3, email = $4, avatar_url = $5, updated_at = $6
		WHERE wallet = $1
	`
	res, err := txcontext.Use(ctx, s.db).ExecContext(ctx, query,
		p.Wallet.String(), p.Name, p.Surnames, p.Email, p.AvatarURL, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// RecordLogin increments the counter in place so concurrent logins are not
// lost.
func (s *PostgresStore) RecordLogin(ctx context.Context, wallet domain.IdentityKey, at time.Time, device string) error {
	query := `
		UPDATE profiles
		SET login_count = login_count + 1, last_login_at = $2, last_login_device = $3, updated_at = $2
		WHERE wallet = $1
	`
	res, err := txcontext.Use(ctx, s.db).ExecContext(ctx, query, wallet.String(), at, device)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, wallet domain.IdentityKey) error {
	res, err := txcontext.Use(ctx, s.db).ExecContext(ctx, `DELETE FROM profiles WHERE wallet = $1`, wallet.String())
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
