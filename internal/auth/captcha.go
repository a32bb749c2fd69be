package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/ScholarChen20/travel-agent/internal/cache"
)

// CaptchaStore issues and checks login captcha challenges. The core only
// deals in codes; rendering the challenge as an image belongs to the
// presentation layer.
type CaptchaStore struct {
	store cache.Store
	ttl   time.Duration
}

// NewCaptchaStore returns a CaptchaStore whose challenges expire after ttl.
func NewCaptchaStore(store cache.Store, ttl time.Duration) *CaptchaStore {
	return &CaptchaStore{store: store, ttl: ttl}
}

// Generate creates a 4-digit challenge under a fresh session id and stores
// it with the configured TTL.
func (c *CaptchaStore) Generate(ctx context.Context) (sessionID, code string, err error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	sessionID = hex.EncodeToString(b)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", "", err
	}
	code = fmt.Sprintf("%04d", n.Int64())

	if err := c.store.Set(ctx, cache.CaptchaKey(sessionID), code, c.ttl); err != nil {
		return "", "", err
	}
	return sessionID, code, nil
}

// Check verifies a submitted code. A correct code consumes the challenge; a
// wrong one leaves it in place until its TTL. Missing, expired, or
// unreachable challenges all fail the check.
func (c *CaptchaStore) Check(ctx context.Context, sessionID, code string) bool {
	if sessionID == "" || code == "" {
		return false
	}
	key := cache.CaptchaKey(sessionID)
	stored, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	if stored != code {
		return false
	}
	_, _ = c.store.Delete(ctx, key)
	return true
}
