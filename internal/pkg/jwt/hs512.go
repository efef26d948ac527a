package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// HS512 checks tokens signed with a secret shared with the gateway.
type HS512 struct {
	cfg    Config
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithExpirationRequired(),
		libJWT.WithIssuedAt(),
		libJWT.WithLeeway(cfg.Leeway),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, libJWT.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &HS512{cfg: cfg, parser: libJWT.NewParser(opts...)}, nil
}

func (h *HS512) Generate(userID int64) (string, error) {
	now := h.cfg.Clock.Now()

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID: userID,
	}
	if h.cfg.UUID != nil {
		claims.ID = h.cfg.UUID.Generate()
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(h.cfg.Secret)
}

// Verify checks signature, algorithm, expiry, issuer and audience, and that
// the token names a caller.
func (h *HS512) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := h.parser.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return h.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	if _, err := claims.CallerID(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
