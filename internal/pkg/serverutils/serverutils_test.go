package serverutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flowershop-chat-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ValidationError{Fields: map[string]string{"A": "failed on required"}}, 400},
		{"json syntax", json.Unmarshal([]byte("{"), &struct{}{}), 400},
		{"deadline", fmt.Errorf("llm: %w", context.DeadlineExceeded), 504},
		{"embedding", rag.Wrap(rag.ErrEmbedding, errors.New("x")), 502},
		{"retrieval", rag.Wrap(rag.ErrRetrieval, errors.New("x")), 502},
		{"model", rag.Wrap(rag.ErrModelInvocation, errors.New("x")), 502},
		{"deadline inside model failure", rag.Wrap(rag.ErrModelInvocation, context.DeadlineExceeded), 504},
		{"rate limit", fiber.ErrTooManyRequests, 429},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Name string `validate:"required"`
		Age  int    `validate:"max=10"`
	}

	assert.NoError(t, ValidateRequest(req{Name: "x", Age: 3}))

	err := ValidateRequest(req{Age: 11})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "failed on required", verr.Fields["Name"])
	assert.Equal(t, "failed on max=10", verr.Fields["Age"])
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/fail", func(c *fiber.Ctx) error {
		return rag.Wrap(rag.ErrRetrieval, errors.New("index down"))
	})
	app.Get("/panic-free", func(c *fiber.Ctx) error {
		return errors.New("secret detail")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)

	var body BaseResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "catalog retrieval failed")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/panic-free", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 500, resp.StatusCode)
	assert.NotContains(t, string(raw), "secret detail")
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", NewJwtMiddleware("s3cret", "admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	exp := time.Now().Add(time.Hour).Unix()

	assert.Equal(t, 401, do(""))
	assert.Equal(t, 401, do("Bearer garbage"))
	assert.Equal(t, 401, do("Bearer "+signToken(t, "other", jwt.MapClaims{"role": "admin", "exp": exp})))
	assert.Equal(t, 403, do("Bearer "+signToken(t, "s3cret", jwt.MapClaims{"role": "viewer", "exp": exp})))
	assert.Equal(t, 200, do("Bearer "+signToken(t, "s3cret", jwt.MapClaims{"role": "admin", "sub": "ops", "exp": exp})))
}

func TestJwtMiddleware_NoSecret(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", NewJwtMiddleware("", "admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
