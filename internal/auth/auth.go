// Package auth restricts the HTTP transports to GitHub users whose verified
// email belongs to an allowed domain.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"migrationmcp/pkg/logging"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultAllowedDomain is the email suffix accepted when none is configured.
	DefaultAllowedDomain = "@rimac.com.pe"
	// DefaultCacheTTL is how long an accepted token is trusted without asking GitHub again.
	DefaultCacheTTL = 10 * time.Minute
)

var (
	// ErrMissingToken is returned when the request carries no bearer token.
	ErrMissingToken = errors.New("authentication required")
	// ErrInvalidToken is returned when GitHub does not accept the token.
	ErrInvalidToken = errors.New("invalid GitHub token")
	// ErrForbidden is returned when the user has no email in the allowed domain.
	ErrForbidden = errors.New("access denied")
)

// UserService is the part of the GitHub users API the gate needs.
type UserService interface {
	Get(ctx context.Context, user string) (*github.User, *github.Response, error)
	ListEmails(ctx context.Context, opts *github.ListOptions) ([]*github.UserEmail, *github.Response, error)
}

// UserServiceFactory returns a UserService authenticated with token.
type UserServiceFactory func(ctx context.Context, token string) UserService

// GitHubUsers returns a factory backed by the GitHub API. baseURL selects a
// GitHub Enterprise instance when set.
func GitHubUsers(baseURL string) UserServiceFactory {
	return func(ctx context.Context, token string) UserService {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client := github.NewClient(oauth2.NewClient(ctx, ts))
		if baseURL != "" {
			if enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL); err == nil {
				client = enterprise
			} else {
				logging.Warn("Auth", "Ignoring GitHub base URL %q: %v", baseURL, err)
			}
		}
		return client.Users
	}
}

// Identity is an authenticated caller.
type Identity struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type cachedIdentity struct {
	identity  *Identity
	expiresAt time.Time
}

// Options configures a Gate.
type Options struct {
	AllowedDomain string
	CacheTTL      time.Duration
	Users         UserServiceFactory
}

// Gate validates bearer tokens against GitHub.
type Gate struct {
	domain string
	ttl    time.Duration
	users  UserServiceFactory
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedIdentity
}

// NewGate returns a Gate. An empty AllowedDomain accepts any GitHub user.
func NewGate(opts Options) *Gate {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	users := opts.Users
	if users == nil {
		users = GitHubUsers("")
	}
	return &Gate{
		domain: strings.ToLower(opts.AllowedDomain),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
		cache:  make(map[string]cachedIdentity),
	}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves token to an Identity.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	key := digest(token)

	g.mu.Lock()
	if c, ok := g.cache[key]; ok {
		if g.now().Before(c.expiresAt) {
			g.mu.Unlock()
			return c.identity, nil
		}
		delete(g.cache, key)
	}
	g.mu.Unlock()

	users := g.users(ctx, token)
	user, _, err := users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, err := g.allowedEmail(ctx, users, user)
	if err != nil {
		logging.Warn("Auth", "Rejected GitHub user %s: %v", user.GetLogin(), err)
		return nil, err
	}

	id := &Identity{Login: user.GetLogin(), Name: user.GetName(), Email: email}
	g.mu.Lock()
	g.cache[key] = cachedIdentity{identity: id, expiresAt: g.now().Add(g.ttl)}
	g.mu.Unlock()

	logging.Info("Auth", "Authorized %s (%s)", id.Login, id.Email)
	return id, nil
}

// allowedEmail returns the first verified email in the allowed domain,
// preferring the primary address.
func (g *Gate) allowedEmail(ctx context.Context, users UserService, user *github.User) (string, error) {
	emails, _, err := users.ListEmails(ctx, &github.ListOptions{PerPage: 100})
	if err != nil {
		if g.domain == "" && user.GetEmail() != "" {
			return user.GetEmail(), nil
		}
		return "", fmt.Errorf("%w: email not available, grant the user:email scope: %v", ErrForbidden, err)
	}

	var match string
	for _, e := range emails {
		if !e.GetVerified() {
			continue
		}
		addr := e.GetEmail()
		if g.domain != "" && !strings.HasSuffix(strings.ToLower(addr), g.domain) {
			continue
		}
		if e.GetPrimary() {
			return addr, nil
		}
		if match == "" {
			match = addr
		}
	}
	if match == "" {
		if g.domain == "" {
			return user.GetEmail(), nil
		}
		return "", fmt.Errorf("%w: only users with %s email addresses are allowed", ErrForbidden, g.domain)
	}
	return match, nil
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without an acceptable token and stores the
// identity in the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r.Context(), TokenFromRequest(r))
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		case errors.Is(err, ErrForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			w.Header().Set("WWW-Authenticate", `Bearer realm="migration-mcp"`)
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	})
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
