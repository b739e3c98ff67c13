package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/stepflow/pkg/adapters/file"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/adapters/redis"
	"github.com/aretw0/stepflow/pkg/persistence/middleware"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/session"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

const redisPrefix = "stepflow:"

// StoreOptions selects and configures the task result store.
type StoreOptions struct {
	Kind          string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	// EncryptionKey is a 32-byte AES key, hex or base64 encoded. Empty disables encryption.
	EncryptionKey string
	// Redact lists answer identifier patterns masked before saving.
	Redact []string
}

// Persistence is an opened store with its session manager.
type Persistence struct {
	Store    ports.TaskResultStore
	Sessions *session.Manager
	close    func() error
}

// Close releases the backend connection, if any.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// OpenPersistence builds the store chain described by opts. Redaction runs
// before encryption so masked values never reach the ciphertext.
func OpenPersistence(opts StoreOptions, logger *slog.Logger) (*Persistence, error) {
	var (
		store       ports.TaskResultStore
		locker      ports.DistributedLocker
		closeFn     func() error
		sessionOpts = []session.Option{session.WithLogger(logger)}
	)

	switch strings.ToLower(opts.Kind) {
	case "", StoreMemory:
		store = memory.NewStore()
	case StoreFile:
		store = file.New(opts.Dir, file.WithLogger(logger))
	case StoreRedis:
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB,
			redis.WithPrefix(redisPrefix+"run:"), redis.WithTTL(opts.TTL))
		store = rs
		locker = redis.NewLocker(rs.Client(), redisPrefix)
		closeFn = rs.Close
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Kind, StoreMemory, StoreFile, StoreRedis)
	}

	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if opts.EncryptionKey != "" {
		key, err := ParseKey(opts.EncryptionKey)
		if err != nil {
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	store = middleware.Chain(store, mws...)

	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	logger.Debug("persistence ready", "store", opts.Kind, "middlewares", len(mws))
	return &Persistence{
		Store:    store,
		Sessions: session.NewManager(store, sessionOpts...),
		close:    closeFn,
	}, nil
}

// ParseKey decodes a 32-byte key given as 64 hex digits or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, fmt.Errorf("encryption key must be 32 bytes, hex or base64 encoded")
}
