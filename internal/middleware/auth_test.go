package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestTokenManager_IssueAndParse(t *testing.T) {
	tokens := NewTokenManager(testSecret)

	raw, err := tokens.Issue(42, "ada@example.com", "ada")
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "ada", claims.Username)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenManager_IssueWithoutSecret(t *testing.T) {
	_, err := NewTokenManager("").Issue(1, "a@b.c", "a")
	assert.Error(t, err)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	tokens := NewTokenManager(testSecret)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":   "7",
			"email": "u@example.com",
			"iss":   TokenIssuer,
			"aud":   TokenAudience,
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong secret", func() string { return sign(base(), "other-secret") }},
		{"expired", func() string {
			c := base()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(c, testSecret)
		}},
		{"wrong issuer", func() string {
			c := base()
			c["iss"] = "someone-else"
			return sign(c, testSecret)
		}},
		{"wrong audience", func() string {
			c := base()
			c["aud"] = "other-client"
			return sign(c, testSecret)
		}},
		{"missing email", func() string {
			c := base()
			delete(c, "email")
			return sign(c, testSecret)
		}},
		{"non numeric subject", func() string {
			c := base()
			c["sub"] = "abc"
			return sign(c, testSecret)
		}},
		{"garbage", func() string { return "not-a-token" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Parse(tt.token())
			assert.Error(t, err)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID": c.Locals(LocalUserID),
			"email":  ActorEmail(c),
		})
	})

	valid, err := tokens.Issue(123, "me@example.com", "me")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Invalid Token", "Bearer invalid", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.EqualValues(t, 123, body["userID"])
				assert.Equal(t, "me@example.com", body["email"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	app := fiber.New()
	app.Get("/feed", OptionalAuth(tokens), func(c *fiber.Ctx) error {
		return c.SendString(ActorEmail(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
