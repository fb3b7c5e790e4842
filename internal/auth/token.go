package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"seva/internal/platform/config"
	dErrors "seva/pkg/domain-errors"
)

// Claims are the access token claims. Admin rides along so the middleware
// can gate the review routes without a user lookup per request.
type Claims struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenService signs and validates access tokens with a shared HMAC key.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		signingKey: []byte(cfg.JWTSigningKey),
		issuer:     cfg.Issuer,
		ttl:        cfg.TokenTTL,
	}
}

func (s *TokenService) Issue(userID string, admin bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken implements middleware.TokenValidator.
func (s *TokenService) ValidateToken(tokenString string) (string, bool, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", false, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", false, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", false, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims.UserID, claims.Admin, nil
}
