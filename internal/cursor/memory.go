package cursor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// MemoryStore is an in-memory cursor store with the same monotonic
// semantics as Store. Used by tests and single-process tooling.
type MemoryStore struct {
	mu      sync.Mutex
	cursors map[cursorKey]model.Cursor
	blocks  map[model.StreamKind]string
	logger  *slog.Logger
}

type cursorKey struct {
	stream model.StreamKind
	symbol string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		cursors: make(map[cursorKey]model.Cursor),
		blocks:  make(map[model.StreamKind]string),
		logger:  logger,
	}
}

func (s *MemoryStore) Get(_ context.Context, stream model.StreamKind, symbol string) (model.Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cursors[cursorKey{stream, symbol}]
	return cur, ok, nil
}

func (s *MemoryStore) Advance(_ context.Context, stream model.StreamKind, symbol string, watermark time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cursorKey{stream, symbol}
	if cur, ok := s.cursors[key]; ok && watermark.Before(cur.Watermark) {
		s.logger.Warn("regressive watermark ignored",
			"stream", stream,
			"symbol", symbol,
			"watermark", watermark,
		)
		return nil
	}

	s.cursors[key] = model.Cursor{
		Stream:    stream,
		Symbol:    symbol,
		Watermark: watermark.UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) Block(_ context.Context, stream model.StreamKind, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[stream] = reason
	return nil
}

func (s *MemoryStore) ClearBlock(_ context.Context, stream model.StreamKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, stream)
	return nil
}

func (s *MemoryStore) Blocked(_ context.Context, stream model.StreamKind) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reason, ok := s.blocks[stream]
	return ok, reason, nil
}
