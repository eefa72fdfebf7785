package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithRole(t *testing.T, role string) *http.Request {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"role":      role,
		"type":      "access",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(jwtauth.NewContext(context.Background(), token, nil))
}

func passthrough() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		role    string
		allowed bool
	}{
		{"admin", true},
		{"supervisor", false},
		{"worker", false},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			next, called := passthrough()
			rec := httptest.NewRecorder()

			AdminOnly(next).ServeHTTP(rec, requestWithRole(t, tc.role))

			assert.Equal(t, tc.allowed, *called)
			if !tc.allowed {
				assert.Equal(t, http.StatusForbidden, rec.Code)
			}
		})
	}
}

func TestRequireSupervisor(t *testing.T) {
	cases := []struct {
		role    string
		allowed bool
	}{
		{"admin", true},
		{"supervisor", true},
		{"worker", false},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			next, called := passthrough()
			rec := httptest.NewRecorder()

			RequireSupervisor(next).ServeHTTP(rec, requestWithRole(t, tc.role))

			assert.Equal(t, tc.allowed, *called)
			if !tc.allowed {
				assert.Equal(t, http.StatusForbidden, rec.Code)
			}
		})
	}
}

func TestRequireSupervisor_MissingRoleClaim(t *testing.T) {
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{"sub": "user-1", "type": "access"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(jwtauth.NewContext(context.Background(), token, nil))

	next, called := passthrough()
	rec := httptest.NewRecorder()

	RequireSupervisor(next).ServeHTTP(rec, req)

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
