// Package token maintains the signed provider token used for token-based
// APNs authentication.
package token

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshInterval is the age at which a cached token is considered stale.
// APNs expects provider tokens to be refreshed at least once an hour and no
// more often than every 20 minutes.
const RefreshInterval = 30 * time.Minute

// Predefined token errors.
var (
	ErrMissingKeyID      = errors.New("missing key id")
	ErrMissingTeamID     = errors.New("missing team id")
	ErrInvalidSigningKey = errors.New("invalid signing key")
	ErrClockSkew         = errors.New("issued-at timestamp is negative")
)

// Source mints ES256 provider tokens and caches each one for the refresh
// interval. It is safe for concurrent use: the common case shares the
// cached token under a read lock, and a stale entry is regenerated by at
// most one caller per staleness window.
type Source struct {
	keyID  string
	teamID string
	key    *ecdsa.PrivateKey

	now       func() time.Time
	onRefresh func()

	mu    sync.RWMutex
	entry *entry
}

// entry is an issued token. Entries are immutable; the cache swaps them
// whole.
type entry struct {
	token    string
	issuedAt time.Time
}

// Config holds configuration for a token Source.
type Config struct {
	// KeyID is the 10-character key identifier from the Apple developer
	// account. It becomes the kid header of every token.
	KeyID string

	// TeamID is the Apple developer team identifier. It becomes the iss
	// claim of every token.
	TeamID string

	// SigningKey is the PEM-encoded ES256 private key (the contents of the
	// .p8 file downloaded from the developer account).
	SigningKey []byte

	// Now is an optional clock override. Defaults to time.Now.
	Now func() time.Time

	// OnRefresh is an optional hook invoked after every successful token
	// generation, including the initial one.
	OnRefresh func()
}

// NewSource parses the signing key and mints the first token synchronously,
// so malformed key material fails construction rather than the first push.
func NewSource(cfg Config) (*Source, error) {
	if cfg.KeyID == "" {
		return nil, ErrMissingKeyID
	}
	if cfg.TeamID == "" {
		return nil, ErrMissingTeamID
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSigningKey, err.Error())
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Source{
		keyID:     cfg.KeyID,
		teamID:    cfg.TeamID,
		key:       key,
		now:       now,
		onRefresh: cfg.OnRefresh,
	}

	first, err := s.mint()
	if err != nil {
		return nil, err
	}
	s.entry = first

	return s, nil
}

// Token returns the cached provider token, regenerating it once it has aged
// past RefreshInterval. Fresh reads take only the read lock; a stale entry
// escalates to the write lock and re-checks, so concurrent callers against
// a stale cache trigger a single regeneration.
func (s *Source) Token() (string, error) {
	s.mu.RLock()
	e := s.entry
	s.mu.RUnlock()

	if s.fresh(e) {
		return e.token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while this one waited for the lock.
	if s.fresh(s.entry) {
		return s.entry.token, nil
	}

	e, err := s.mint()
	if err != nil {
		// The previous entry stays in place; a later fetch retries.
		return "", err
	}
	s.entry = e

	return e.token, nil
}

// IssuedAt returns the creation time of the currently cached token.
func (s *Source) IssuedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.issuedAt
}

// fresh reports whether the entry is younger than RefreshInterval.
func (s *Source) fresh(e *entry) bool {
	return s.now().Sub(e.issuedAt) < RefreshInterval
}

// mint signs a new token with the current wall-clock time as issued-at.
func (s *Source) mint() (*entry, error) {
	issuedAt := s.now()
	if issuedAt.Unix() < 0 {
		return nil, fmt.Errorf("%w: %d", ErrClockSkew, issuedAt.Unix())
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:   s.teamID,
		IssuedAt: jwt.NewNumericDate(issuedAt),
	})
	tok.Header["kid"] = s.keyID

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("signing provider token: %w", err)
	}

	if s.onRefresh != nil {
		s.onRefresh()
	}

	return &entry{token: signed, issuedAt: issuedAt}, nil
}
