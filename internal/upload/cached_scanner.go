package upload

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrCacheMiss is returned by a VerdictCache when the key is absent.
var ErrCacheMiss = errors.New("verdict cache miss")

// VerdictCache stores serialized scan verdicts keyed by content hash.
type VerdictCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachingScanner memoizes verdicts of the wrapped Scanner by SHA-256 of the
// content. Cache failures are logged and fall through to a direct scan.
type CachingScanner struct {
	next   Scanner
	cache  VerdictCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachingScanner(next Scanner, cache VerdictCache, ttl time.Duration, logger *zap.Logger) *CachingScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingScanner{next: next, cache: cache, ttl: ttl, logger: logger}
}

func verdictKey(hash string) string {
	return "sikap:scan:" + hash
}

func (s *CachingScanner) Scan(ctx context.Context, data []byte) (ScanResult, error) {
	key := verdictKey(Hash(data))

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var res ScanResult
		if jerr := json.Unmarshal(raw, &res); jerr == nil {
			res.Cached = true
			return res, nil
		}
		s.logger.Warn("discarding undecodable scan verdict", zap.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		s.logger.Warn("scan verdict cache read failed", zap.Error(err))
	}

	res, err := s.next.Scan(ctx, data)
	if err != nil {
		return res, err
	}

	if raw, err := json.Marshal(res); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("scan verdict cache write failed", zap.Error(err))
		}
	}
	return res, nil
}
