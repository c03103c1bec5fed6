package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// ErrHeld signals that a non-expired lease exists for the stream.
// Expected and benign: it means a cycle is already running.
var ErrHeld = errors.New("lease held by another run")

// ErrLost signals a heartbeat or release against a lease this holder
// no longer owns, typically after its TTL lapsed and another run
// stole it.
var ErrLost = errors.New("lease no longer held")

// Store persists run leases in PostgreSQL. All operations are single
// atomic statements, so a timing-out run and a freshly scheduled one
// cannot both win.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a lease store.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Acquire takes the stream's lease for ttl. It succeeds if no lease
// row exists or the existing one has expired; otherwise ErrHeld.
func (s *Store) Acquire(ctx context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error {
	ct, err := s.db.Exec(ctx, `
		INSERT INTO collector_leases (stream, holder_id, acquired_at, expires_at)
		VALUES ($1, $2, now(), now() + make_interval(secs => $3))
		ON CONFLICT (stream) DO UPDATE
		SET holder_id = EXCLUDED.holder_id,
		    acquired_at = EXCLUDED.acquired_at,
		    expires_at = EXCLUDED.expires_at
		WHERE collector_leases.expires_at <= now()
	`, stream, holder, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("acquire lease %s: %w", stream, err)
	}

	if ct.RowsAffected() == 0 {
		return ErrHeld
	}
	return nil
}

// Heartbeat extends the lease by ttl. Returns ErrLost if the holder
// no longer owns the lease.
func (s *Store) Heartbeat(ctx context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE collector_leases
		SET expires_at = now() + make_interval(secs => $3)
		WHERE stream = $1 AND holder_id = $2
	`, stream, holder, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("heartbeat lease %s: %w", stream, err)
	}

	if ct.RowsAffected() == 0 {
		return ErrLost
	}
	return nil
}

// Release frees the lease immediately so the next scheduled run does
// not have to wait for expiry. Releasing a lease we no longer hold is
// a no-op.
func (s *Store) Release(ctx context.Context, stream model.StreamKind, holder uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM collector_leases
		WHERE stream = $1 AND holder_id = $2
	`, stream, holder)
	if err != nil {
		return fmt.Errorf("release lease %s: %w", stream, err)
	}
	return nil
}
