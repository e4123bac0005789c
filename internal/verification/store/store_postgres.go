package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veridion/internal/verification"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
	txcontext "veridion/pkg/platform/tx"
)

// PostgresStore persists snapshots in the ledger_snapshots table. A first save
// inserts and later saves update only the row still at the expected version.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed snapshot store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, identity domain.IdentityKey) (*verification.Snapshot, error) {
	query := `
		SELECT version, total, records, updated_at
		FROM ledger_snapshots
		WHERE identity_key = $1
	`
	snap := verification.Snapshot{Identity: identity}
	var records []byte
	err := txcontext.Use(ctx, s.db).QueryRowContext(ctx, query, identity.String()).
		Scan(&snap.Version, &snap.Total, &records, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	if err := json.Unmarshal(records, &snap.Records); err != nil {
		return nil, fmt.Errorf("decode ledger records: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap verification.Snapshot, expected int64) error {
	records := snap.Records
	if records == nil {
		records = []verification.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger records: %w", err)
	}
	methodIDs := make([]string, 0, len(records))
	for _, r := range records {
		methodIDs = append(methodIDs, r.MethodID)
	}

	insert := `
		INSERT INTO ledger_snapshots (identity_key, version, total, method_ids, records, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identity_key) DO NOTHING
	`
	update := `
		UPDATE ledger_snapshots
		SET version = $2, total = $3, method_ids = $4, records = $5, updated_at = $6
		WHERE identity_key = $1 AND version = $7
	`
	var res sql.Result
	if expected == 0 {
		res, err = txcontext.Use(ctx, s.db).ExecContext(ctx, insert,
			snap.Identity.String(), snap.Version, snap.Total, pq.Array(methodIDs), payload, snap.UpdatedAt)
	} else {
		res, err = txcontext.Use(ctx, s.db).ExecContext(ctx, update,
			snap.Identity.String(), snap.Version, snap.Total, pq.Array(methodIDs), payload, snap.UpdatedAt, expected)
	}
	if err != nil {
		return fmt.Errorf("save ledger snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save ledger snapshot: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrStale
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, identity domain.IdentityKey) error {
	res, err := txcontext.Use(ctx, s.db).ExecContext(ctx, `DELETE FROM ledger_snapshots WHERE identity_key = $1`, identity.String())
	if err != nil {
		return fmt.Errorf("delete ledger snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ledger snapshot: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
