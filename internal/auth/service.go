// Package auth implements the token authority: credential issuance,
// verification, revocation, and the login flow that sits in front of them.
//
// Two independent checks gate every verification besides signature and
// expiry: the jti must not be blacklisted, and the device registry entry for
// (subject, device) must still hold this exact token string. Logout removes
// the registry entry and blacklists the jti, so either check alone is enough
// to kill a revoked token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/errs"
	"github.com/ScholarChen20/travel-agent/internal/security"
	"github.com/ScholarChen20/travel-agent/internal/user/domain"
	userrepo "github.com/ScholarChen20/travel-agent/internal/user/repository"
)

// DefaultDeviceID is used when a login request carries no device id.
const DefaultDeviceID = "default"

// Credential is a verified or freshly issued bearer credential.
type Credential struct {
	Token     string
	UserID    string
	Username  string
	Role      domain.Role
	DeviceID  string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginInput carries everything the login flow needs.
type LoginInput struct {
	Username         string
	Password         string
	DeviceID         string
	CaptchaSessionID string
	CaptchaCode      string
}

// Authority issues, verifies, and revokes credentials and owns the per-user
// device registry and jti blacklist.
type Authority struct {
	users   userrepo.Repository
	store   cache.Store
	tokens  *security.TokenProvider
	hasher  *security.Hasher
	limiter *LoginLimiter
	captcha *CaptchaStore
	log     *zap.Logger
}

// NewAuthority returns an Authority with the given dependencies.
func NewAuthority(
	users userrepo.Repository,
	store cache.Store,
	tokens *security.TokenProvider,
	hasher *security.Hasher,
	limiter *LoginLimiter,
	captcha *CaptchaStore,
	log *zap.Logger,
) *Authority {
	return &Authority{
		users:   users,
		store:   store,
		tokens:  tokens,
		hasher:  hasher,
		limiter: limiter,
		captcha: captcha,
		log:     log,
	}
}

// Issue signs a fresh token for the principal and registers it as the live
// token for (userID, deviceID). The previous registry value for that device,
// if any, is overwritten. The registry TTL is reset to the token's own
// horizon so the two expire together.
func (a *Authority) Issue(ctx context.Context, userID string, username string, role domain.Role, deviceID string) (*Credential, error) {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	token, claims, err := a.tokens.Issue(userID, username, string(role), deviceID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	key := cache.DeviceRegistryKey(userID)
	if err := a.store.HSet(ctx, key, deviceID, token); err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}
	if err := a.store.Expire(ctx, key, a.tokens.AccessTTL()); err != nil {
		return nil, fmt.Errorf("set registry expiry: %w", err)
	}
	return &Credential{
		Token:     token,
		UserID:    userID,
		Username:  username,
		Role:      role,
		DeviceID:  deviceID,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks a token string end to end: signature and expiry, jti
// blacklist, device registry liveness, and subject existence/activity in the
// relational store. Every credential failure surfaces as
// errs.ErrUnauthenticated; the specific cause is only logged. A relational
// store failure propagates, since that store is authoritative.
func (a *Authority) Verify(ctx context.Context, token string) (*Credential, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		a.log.Debug("token rejected: parse failed", zap.Error(err))
		return nil, errs.ErrUnauthenticated
	}

	// Blacklist and registry live in the cache server. Its unavailability
	// must not take down every authenticated request, so infrastructure
	// errors are logged and the corresponding check is skipped; a definite
	// answer is enforced.
	if n, err := a.store.Exists(ctx, cache.BlacklistKey(claims.ID)); err != nil {
		a.log.Warn("blacklist check unavailable", zap.Error(err))
	} else if n > 0 {
		a.log.Debug("token rejected: revoked jti", zap.String("jti", claims.ID))
		return nil, errs.ErrUnauthenticated
	}

	if live, ok, err := a.store.HGet(ctx, cache.DeviceRegistryKey(claims.Subject), claims.DeviceID); err != nil {
		a.log.Warn("device registry check unavailable", zap.Error(err))
	} else if !ok || live != token {
		// Logged out, registry expired, or superseded by a refresh.
		a.log.Debug("token rejected: not the live token for device",
			zap.String("user_id", claims.Subject), zap.String("device_id", claims.DeviceID))
		return nil, errs.ErrUnauthenticated
	}

	u, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	if u == nil || !u.Active {
		a.log.Debug("token rejected: subject missing or inactive", zap.String("user_id", claims.Subject))
		return nil, errs.ErrUnauthenticated
	}

	return &Credential{
		Token:     token,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		DeviceID:  claims.DeviceID,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke logs out one device: the registry entry goes away and the token's
// jti is blacklisted for the remainder of its lifetime, so a copied token
// fails verification even while structurally valid.
func (a *Authority) Revoke(ctx context.Context, userID, deviceID string) error {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	key := cache.DeviceRegistryKey(userID)
	token, ok, err := a.store.HGet(ctx, key, deviceID)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}
	if err := a.store.HDel(ctx, key, deviceID); err != nil {
		return fmt.Errorf("remove registry entry: %w", err)
	}
	if !ok {
		return nil
	}
	if claims, err := a.tokens.Parse(token); err == nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining > 0 {
			if err := a.store.Set(ctx, cache.BlacklistKey(claims.ID), "1", remaining); err != nil {
				a.log.Warn("blacklist write failed; registry removal still revokes",
					zap.String("jti", claims.ID), zap.Error(err))
			}
		}
	}
	return nil
}

// Refresh re-issues under the same subject and device, overwriting the
// registry entry. The prior token stops verifying immediately because it no
// longer matches the registry, even though it stays structurally valid
// until its own expiry.
func (a *Authority) Refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	return a.Issue(ctx, cred.UserID, cred.Username, cred.Role, cred.DeviceID)
}

// Login runs the full flow: captcha, rate-limit gate, credential check,
// issuance. The failure counter moves only on failed credential checks and
// is cleared by success; the gate fires before any password work.
func (a *Authority) Login(ctx context.Context, in LoginInput) (*Credential, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, errs.ErrUnauthenticated
	}

	if !a.captcha.Check(ctx, in.CaptchaSessionID, in.CaptchaCode) {
		return nil, fmt.Errorf("%w: captcha mismatch or expired", errs.ErrValidation)
	}

	if err := a.limiter.Allow(ctx, username); err != nil {
		return nil, err
	}

	u, err := a.users.GetByLogin(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		a.limiter.Failure(ctx, username)
		return nil, errs.ErrUnauthenticated
	}
	if err := a.hasher.Compare(u.PasswordHash, []byte(in.Password)); err != nil {
		a.limiter.Failure(ctx, username)
		return nil, errs.ErrUnauthenticated
	}
	if !u.Active {
		return nil, errs.ErrUnauthenticated
	}

	cred, err := a.Issue(ctx, u.ID, u.Username, u.Role, in.DeviceID)
	if err != nil {
		return nil, err
	}

	if err := a.users.UpdateLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		a.log.Warn("last-login update failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	a.limiter.Success(ctx, username)
	return cred, nil
}

// IsUnauthenticated reports whether err maps to the uniform
// unauthenticated response.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, errs.ErrUnauthenticated)
}
