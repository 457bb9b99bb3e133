package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	login   string
	emails  []*github.UserEmail
	getErr  error
	gets    *atomic.Int32
}

func (f *fakeUsers) Get(ctx context.Context, user string) (*github.User, *github.Response, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	return &github.User{Login: github.String(f.login)}, nil, nil
}

func (f *fakeUsers) ListEmails(ctx context.Context, opts *github.ListOptions) ([]*github.UserEmail, *github.Response, error) {
	return f.emails, nil, nil
}

func email(addr string, verified, primary bool) *github.UserEmail {
	return &github.UserEmail{Email: github.String(addr), Verified: github.Bool(verified), Primary: github.Bool(primary)}
}

func gateFor(users *fakeUsers, domain string) *Gate {
	if users.gets == nil {
		users.gets = &atomic.Int32{}
	}
	return NewGate(Options{
		AllowedDomain: domain,
		Users:         func(ctx context.Context, token string) UserService { return users },
	})
}

func TestAuthenticate_AllowedDomain(t *testing.T) {
	users := &fakeUsers{login: "dev", emails: []*github.UserEmail{
		email("dev@gmail.com", true, true),
		email("dev@rimac.com.pe", true, false),
	}}
	g := gateFor(users, DefaultAllowedDomain)

	id, err := g.Authenticate(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Login: "dev", Email: "dev@rimac.com.pe"}, id)

	// Cached: GitHub is not asked again.
	_, err = g.Authenticate(context.Background(), "tok")
	require.NoError(t, err)
	assert.EqualValues(t, 1, users.gets.Load())
}

func TestAuthenticate_CacheExpires(t *testing.T) {
	users := &fakeUsers{login: "dev", emails: []*github.UserEmail{email("dev@rimac.com.pe", true, true)}}
	g := gateFor(users, DefaultAllowedDomain)
	now := time.Now()
	g.now = func() time.Time { return now }

	_, err := g.Authenticate(context.Background(), "tok")
	require.NoError(t, err)
	now = now.Add(DefaultCacheTTL + time.Second)
	_, err = g.Authenticate(context.Background(), "tok")
	require.NoError(t, err)
	assert.EqualValues(t, 2, users.gets.Load())
}

func TestAuthenticate_Rejections(t *testing.T) {
	unverified := &fakeUsers{login: "x", emails: []*github.UserEmail{email("x@rimac.com.pe", false, true)}}
	_, err := gateFor(unverified, DefaultAllowedDomain).Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrForbidden)

	outsider := &fakeUsers{login: "y", emails: []*github.UserEmail{email("y@example.com", true, true)}}
	_, err = gateFor(outsider, DefaultAllowedDomain).Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrForbidden)

	bad := &fakeUsers{getErr: errors.New("401 Bad credentials")}
	_, err = gateFor(bad, DefaultAllowedDomain).Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = gateFor(&fakeUsers{}, DefaultAllowedDomain).Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthenticate_AnyDomain(t *testing.T) {
	users := &fakeUsers{login: "z", emails: []*github.UserEmail{email("z@example.com", true, true)}}
	id, err := gateFor(users, "").Authenticate(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "z@example.com", id.Email)
}

func TestMiddleware(t *testing.T) {
	users := &fakeUsers{login: "dev", emails: []*github.UserEmail{email("dev@rimac.com.pe", true, true)}}
	g := gateFor(users, DefaultAllowedDomain)

	var seen *Identity
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "dev", seen.Login)

	outsider := gateFor(&fakeUsers{login: "y", emails: []*github.UserEmail{email("y@example.com", true, true)}}, DefaultAllowedDomain)
	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "bearer other")
	rec = httptest.NewRecorder()
	outsider.Middleware(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(req))
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(req))
	req.Header.Set("Authorization", "Bearer  abc ")
	assert.Equal(t, "abc", TokenFromRequest(req))
}
