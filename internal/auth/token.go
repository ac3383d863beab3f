package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// refreshTokenType marks refresh tokens so an access token can never be
// replayed against the refresh endpoint.
const refreshTokenType = "refresh"

// AccessClaims are the claims embedded in an access token. The user ID
// is carried both as the registered subject and as an explicit "id"
// claim for clients that read it directly.
type AccessClaims struct {
	Email  string   `json:"email"`
	UserID string   `json:"id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in a refresh token.
type RefreshClaims struct {
	Email     string `json:"email"`
	UserID    string `json:"id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies JWT tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewTokenIssuer returns a TokenIssuer signing with the given secret.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccess creates a signed access token for the user. The subject is
// the user ID and the token carries the user's role names, so guards can
// check roles without a database round trip.
func (t *TokenIssuer) IssueAccess(userID, email string, roles []string) (string, *AccessClaims, error) {
	now := t.now()

	claims := &AccessClaims{
		Email:  email,
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "signing access token")
	}

	return signed, claims, nil
}

// IssueRefresh creates a signed refresh token for the user.
func (t *TokenIssuer) IssueRefresh(userID, email string) (string, error) {
	now := t.now()

	claims := &RefreshClaims{
		Email:     email,
		UserID:    userID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing refresh token")
	}

	return signed, nil
}

// VerifyAccess parses and validates an access token.
func (t *TokenIssuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	if err := t.verify(tokenString, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// VerifyRefresh parses and validates a refresh token. Tokens without the
// refresh type marker are rejected.
func (t *TokenIssuer) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}

	if err := t.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != refreshTokenType {
		return nil, ErrInvalidRefreshToken
	}

	return claims, nil
}

func (t *TokenIssuer) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
