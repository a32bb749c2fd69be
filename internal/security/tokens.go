package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or
	// fails signature or issuer checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds the JWT payload for an access token: registered claims
// (sub, jti, iat, nbf, exp) plus the principal's username, role, and the
// device the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	DeviceID string `json:"device_id"`
}

// TokenProvider issues and validates HS256 access tokens with a shared secret.
type TokenProvider struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret. issuer is
// set on claims and validated on parse.
func NewTokenProvider(secret []byte, issuer string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:    secret,
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// AccessTTL returns the configured token lifetime. The device registry TTL
// is always reset to this same horizon so registry liveness and token
// expiry move together.
func (p *TokenProvider) AccessTTL() time.Duration {
	return p.accessTTL
}

// Issue signs a fresh access token for the given principal and device.
// Returns the token string and its claims (jti, iat, exp populated).
func (p *TokenProvider) Issue(userID, username, role, deviceID string) (string, *Claims, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
		Username: username,
		Role:     role,
		DeviceID: deviceID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse validates the token's signature, expiry, and issuer, and returns its
// claims. Revocation is not checked here; that is the authority's job.
func (p *TokenProvider) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
