package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/cache"
)

const (
	signalKeyPrefix = "signals"
	pairIndexKey    = "signals:pairs"
)

// CacheSignalStore keeps the per-pair snapshots in a cache.Service, so the
// same code runs against Redis in production and the in-memory cache in
// single-node or test deployments. The control plane is the only writer; the
// pair index is mirrored in-process and persisted for restart recovery.
type CacheSignalStore struct {
	cache cache.Service

	mu    sync.Mutex
	pairs map[string]struct{}
}

func NewCacheSignalStore(c cache.Service) *CacheSignalStore {
	return &CacheSignalStore{cache: c, pairs: make(map[string]struct{})}
}

// Get returns the pair's snapshot. An unknown pair yields a zero snapshot
// with the pair set; the first trade or oracle tick seeds the rest.
func (s *CacheSignalStore) Get(ctx context.Context, pair string) (models.RiskSignals, error) {
	var sig models.RiskSignals
	err := s.cache.Get(ctx, cache.GenerateKey(signalKeyPrefix, pair), &sig)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.RiskSignals{Pair: pair}, nil
	}
	if err != nil {
		return models.RiskSignals{}, fmt.Errorf("signal get %s: %w", pair, err)
	}
	return sig, nil
}

// Put stores the snapshot with no expiry; signals outlive any one process.
func (s *CacheSignalStore) Put(ctx context.Context, sig models.RiskSignals) error {
	if sig.Pair == "" {
		return fmt.Errorf("signal put: pair required")
	}
	if err := s.cache.Set(ctx, cache.GenerateKey(signalKeyPrefix, sig.Pair), sig, 0); err != nil {
		return fmt.Errorf("signal put %s: %w", sig.Pair, err)
	}
	return s.indexPair(ctx, sig.Pair)
}

// Pairs lists every pair the store has seen, sorted.
func (s *CacheSignalStore) Pairs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if len(s.pairs) == 0 {
		s.mu.Unlock()
		if err := s.loadIndex(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
	}
	out := make([]string, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out, nil
}

func (s *CacheSignalStore) Health(ctx context.Context) error {
	_, err := s.cache.Exists(ctx, pairIndexKey)
	return err
}

func (s *CacheSignalStore) Close() error { return nil }

func (s *CacheSignalStore) indexPair(ctx context.Context, pair string) error {
	s.mu.Lock()
	if _, ok := s.pairs[pair]; ok {
		s.mu.Unlock()
		return nil
	}
	s.pairs[pair] = struct{}{}
	list := make([]string, 0, len(s.pairs))
	for p := range s.pairs {
		list = append(list, p)
	}
	s.mu.Unlock()

	sort.Strings(list)
	if err := s.cache.Set(ctx, pairIndexKey, list, 0); err != nil {
		return fmt.Errorf("signal index: %w", err)
	}
	return nil
}

func (s *CacheSignalStore) loadIndex(ctx context.Context) error {
	var list []string
	err := s.cache.Get(ctx, pairIndexKey, &list)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("signal index load: %w", err)
	}
	s.mu.Lock()
	for _, p := range list {
		s.pairs[p] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

var _ domrepo.SignalStore = (*CacheSignalStore)(nil)
