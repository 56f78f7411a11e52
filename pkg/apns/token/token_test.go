package token_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apnskit/apnskit/pkg/apns/token"
)

// testSigningKey generates a PEM-encoded ES256 private key.
func testSigningKey(t *testing.T) ([]byte, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), key
}

// testClock is a controllable clock safe for concurrent reads.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewSource_MintsEagerly(t *testing.T) {
	pemKey, key := testSigningKey(t)

	var refreshes atomic.Int64
	src, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: pemKey,
		OnRefresh:  func() { refreshes.Add(1) },
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshes.Load())

	tok, err := src.Token()
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	// The token must carry the key id header and the team id issuer claim.
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	assert.Equal(t, "ABC123DEFG", parsed.Header["kid"])

	issuer, err := parsed.Claims.GetIssuer()
	require.NoError(t, err)
	assert.Equal(t, "DEF123GHIJ", issuer)

	issuedAt, err := parsed.Claims.GetIssuedAt()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), issuedAt.Time, time.Minute)
}

func TestNewSource_InvalidSigningKey(t *testing.T) {
	_, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: []byte("not a pem key"),
	})
	assert.ErrorIs(t, err, token.ErrInvalidSigningKey)
}

func TestNewSource_MissingIdentity(t *testing.T) {
	pemKey, _ := testSigningKey(t)

	_, err := token.NewSource(token.Config{TeamID: "DEF123GHIJ", SigningKey: pemKey})
	assert.ErrorIs(t, err, token.ErrMissingKeyID)

	_, err = token.NewSource(token.Config{KeyID: "ABC123DEFG", SigningKey: pemKey})
	assert.ErrorIs(t, err, token.ErrMissingTeamID)
}

func TestSource_TokenReusedWhileFresh(t *testing.T) {
	pemKey, _ := testSigningKey(t)

	var refreshes atomic.Int64
	src, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: pemKey,
		OnRefresh:  func() { refreshes.Add(1) },
	})
	require.NoError(t, err)

	first, err := src.Token()
	require.NoError(t, err)
	second, err := src.Token()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), refreshes.Load())
}

func TestSource_TokenRefreshesWhenStale(t *testing.T) {
	pemKey, _ := testSigningKey(t)
	clock := newTestClock(time.Unix(1700000000, 0))

	var refreshes atomic.Int64
	src, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: pemKey,
		Now:        clock.Now,
		OnRefresh:  func() { refreshes.Add(1) },
	})
	require.NoError(t, err)

	first, err := src.Token()
	require.NoError(t, err)

	clock.Advance(token.RefreshInterval + time.Second)

	second, err := src.Token()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, int64(2), refreshes.Load())
	assert.Equal(t, clock.Now(), src.IssuedAt())
}

func TestSource_ConcurrentFetchSingleRefresh(t *testing.T) {
	pemKey, _ := testSigningKey(t)
	clock := newTestClock(time.Unix(1700000000, 0))

	var refreshes atomic.Int64
	src, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: pemKey,
		Now:        clock.Now,
		OnRefresh:  func() { refreshes.Add(1) },
	})
	require.NoError(t, err)

	clock.Advance(token.RefreshInterval + time.Second)

	const callers = 32
	tokens := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := src.Token()
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	// One initial mint plus exactly one regeneration under contention.
	assert.Equal(t, int64(2), refreshes.Load())
	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
	assert.Equal(t, clock.Now(), src.IssuedAt())
}

func TestNewSource_ClockBeforeEpoch(t *testing.T) {
	pemKey, _ := testSigningKey(t)

	_, err := token.NewSource(token.Config{
		KeyID:      "ABC123DEFG",
		TeamID:     "DEF123GHIJ",
		SigningKey: pemKey,
		Now:        func() time.Time { return time.Unix(-5, 0) },
	})
	assert.ErrorIs(t, err, token.ErrClockSkew)
}
