package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lojinha/pkg/logger"
)

type fakeVerifier struct {
	subject string
	err     error
}

func (f fakeVerifier) Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oidc.IDToken{Subject: f.subject}, nil
}

type fakeRoleStore struct {
	calls    int
	failures int
	isAdmin  bool
}

func (f *fakeRoleStore) IsAdmin(ctx context.Context, subject string) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, errors.New("transient lookup failure")
	}
	return f.isAdmin, nil
}

func testRouter(verifier TokenVerifier, store RoleStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/ping", Middleware(verifier), RequireAdmin(store, logger.NewNop()), func(c *gin.Context) {
		session := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"subject": session.Subject, "admin": session.Admin})
	})
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	r := testRouter(fakeVerifier{subject: "u1"}, &fakeRoleStore{isAdmin: true})
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Basic abc").Code)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	r := testRouter(fakeVerifier{err: errors.New("bad token")}, &fakeRoleStore{isAdmin: true})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer nope").Code)
}

func TestAdminAllowed(t *testing.T) {
	store := &fakeRoleStore{isAdmin: true}
	r := testRouter(fakeVerifier{subject: "u1"}, store)

	w := get(r, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.calls)
}

// Transient role-store failures are retried before concluding non-admin,
// covering the token propagation race right after sign-in.
func TestAdminCheckRetriesTransientFailures(t *testing.T) {
	store := &fakeRoleStore{failures: 2, isAdmin: true}
	r := testRouter(fakeVerifier{subject: "u1"}, store)

	w := get(r, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, store.calls)
}

func TestNonAdminForbiddenAfterRetries(t *testing.T) {
	store := &fakeRoleStore{isAdmin: false}
	r := testRouter(fakeVerifier{subject: "u1"}, store)

	w := get(r, "Bearer token")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 3, store.calls)
}
