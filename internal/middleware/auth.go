// Package middleware provides authentication, logging, metrics and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"skillshare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "skillshare-api"
	TokenAudience = "skillshare-client"

	defaultTokenTTL = 7 * 24 * time.Hour
)

// Locals keys set by the auth middleware.
const (
	LocalUserID    = "userID"
	LocalUserEmail = "userEmail"
)

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID   uint
	Email    string
	Username string
	TokenID  string
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager signing with secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: defaultTokenTTL, now: time.Now}
}

// Issue creates a signed token for the user. The email claim is the actor
// identity the services resolve.
func (m *TokenManager) Issue(userID uint, email, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := m.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"email":    email,
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies tokenString and extracts its claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, models.NewUnauthorizedError("Token is missing the email claim")
	}
	username, _ := claims["username"].(string)
	jti, _ := claims["jti"].(string)

	return &Claims{UserID: uint(userID), Email: email, Username: username, TokenID: jti}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func setIdentity(c *fiber.Ctx, claims *Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUserEmail, claims.Email)
	ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
	c.SetUserContext(ctx)
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		setIdentity(c, claims)
		return c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token is present and
// lets anonymous requests through.
func OptionalAuth(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := BearerToken(c); raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

// ActorEmail returns the authenticated email, or "" for anonymous requests.
func ActorEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalUserEmail).(string)
	return email
}
