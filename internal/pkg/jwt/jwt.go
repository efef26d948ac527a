package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the HS512 key size in bytes.
const MinSecretLen = 64

var (
	ErrSigningKeyTooShort = errors.New("jwt: HS512 secret must be at least 64 bytes")
	ErrTokenExpired       = errors.New("jwt: token expired")
	ErrInvalidToken       = errors.New("jwt: invalid token")
	ErrNoCaller           = errors.New("jwt: token names no user")
)

// JWT verifies bearer tokens minted by the gateway. Generate mints a token
// with the same settings for local tooling and tests.
type JWT interface {
	Generate(userID int64) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL only applies to Generate.
	TTL time.Duration
	// Leeway absorbs clock skew between the gateway and this service.
	Leeway time.Duration
	Clock  clocker
	// UUID fills the jti claim on Generate. Optional.
	UUID generator
}

// Claims carries the caller. Gateways put the user id either in user_id, as
// a string, or in sub.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id,string,omitempty"`
}

// CallerID returns the positive user id named by the token.
func (c Claims) CallerID() (int64, error) {
	if c.UserID > 0 {
		return c.UserID, nil
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoCaller
	}
	return id, nil
}
