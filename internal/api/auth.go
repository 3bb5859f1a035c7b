package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds bearer-token settings.
type OIDCConfig struct {
	IssuerURL string
	Audience  string
	Enabled   bool

	// TenantClaim names the claim carrying the tenant; "tenant_id" when empty.
	TenantClaim string
}

// Identity is the authenticated caller.
type Identity struct {
	TenantID string
	UserID   string
}

type contextKey string

const ctxIdentity contextKey = "identity"

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext returns the caller set by bearer auth, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}

// TenantFromContext returns the caller's tenant or "".
func TenantFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.TenantID
}

// UserFromContext returns the caller's subject (or email) or "".
func UserFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

var (
	errNoAuthorization = errors.New("missing Authorization header")
	errNotBearer       = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token of an "Authorization: Bearer" header.
// The scheme is case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errNoAuthorization
	}
	scheme, raw, ok := strings.Cut(h, " ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	return raw, nil
}

// identityFrom maps verified claims to an Identity. The subject wins over the
// email when both are present.
func identityFrom(token *oidc.IDToken, tenantClaim string) (Identity, error) {
	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Identity{}, err
	}
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	id := Identity{TenantID: str(tenantClaim), UserID: token.Subject}
	if id.UserID == "" {
		id.UserID = str("email")
	}
	return id, nil
}

// bearerAuth verifies ID tokens issued by provider for cfg.Audience. Health
// checks and CORS preflights pass through unauthenticated.
func bearerAuth(provider *oidc.Provider, cfg OIDCConfig, next http.Handler) http.Handler {
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.Audience})
	tenantClaim := cfg.TenantClaim
	if tenantClaim == "" {
		tenantClaim = "tenant_id"
	}

	unauthorized := func(w http.ResponseWriter, msg string) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ingesttest"`)
		writeError(w, http.StatusUnauthorized, msg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := bearerToken(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		token, err := verifier.Verify(r.Context(), raw)
		if err != nil {
			unauthorized(w, "invalid token: "+err.Error())
			return
		}
		id, err := identityFrom(token, tenantClaim)
		if err != nil {
			unauthorized(w, "invalid token claims")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
