package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Cache memoizes the answers of another Oracle in a badger database so that
// repeated reductions of the same bug do not pay for identical solver runs.
// Faults are never cached, and neither are unknown verdicts.
type Cache struct {
	next   Oracle
	db     *badger.DB
	logger *zap.Logger

	hits   int
	misses int
}

var _ Oracle = (*Cache)(nil)

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// NewCache wraps next with a cache stored under dir. An empty dir keeps the
// cache in memory for the lifetime of the process.
func NewCache(next Oracle, dir string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &Cache{next: next, db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	c.logger.Debug("oracle cache closed", zap.Int("hits", c.hits), zap.Int("misses", c.misses))
	return c.db.Close()
}

// Stats returns the hit and miss counts since the cache was opened.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func cacheKey(kind string, parts ...string) []byte {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return []byte(kind + ":" + hex.EncodeToString(h.Sum(nil)))
}

func (c *Cache) get(key []byte) (string, bool) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		c.misses++
		return "", false
	}
	c.hits++
	return string(val), true
}

func (c *Cache) put(key []byte, val string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(val))
	})
	if err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
}

func (c *Cache) Solve(ctx context.Context, p smt.Problem) (Verdict, error) {
	key := cacheKey("solve", p.Render())
	if val, ok := c.get(key); ok {
		if v, ok := ParseVerdict(val); ok {
			return v, nil
		}
	}
	v, err := c.next.Solve(ctx, p)
	if err != nil {
		return v, err
	}
	if v != Unknown {
		c.put(key, v.String())
	}
	return v, nil
}

func (c *Cache) CheckModel(ctx context.Context, p smt.Problem) (string, error) {
	key := cacheKey("check-model", p.Render())
	if val, ok := c.get(key); ok {
		return strings.TrimPrefix(val, "diag:"), nil
	}
	diag, err := c.next.CheckModel(ctx, p)
	if err != nil {
		return "", err
	}
	c.put(key, "diag:"+diag)
	return diag, nil
}

func (c *Cache) Equivalent(ctx context.Context, a, b smt.Problem) (bool, error) {
	key := cacheKey("equivalent", a.Render(), b.Render())
	if val, ok := c.get(key); ok {
		return val == "true", nil
	}
	eq, err := c.next.Equivalent(ctx, a, b)
	if err != nil {
		return false, err
	}
	// not equivalent may be an undecided query; only positive answers are stable
	if eq {
		c.put(key, "true")
	}
	return eq, nil
}

func (c *Cache) Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error) {
	key := cacheKey("simplify", p.Header(), clause, strings.Join(options, " "))
	if val, ok := c.get(key); ok {
		return val, nil
	}
	out, err := c.next.Simplify(ctx, p, clause, options)
	if err != nil {
		return "", err
	}
	c.put(key, out)
	return out, nil
}
