package middleware

import (
	"log/slog"
	"net"
	"strings"

	"github.com/artmorph/api/internal/contextx"
	"github.com/artmorph/api/internal/token"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

// securityScheme is the name operations use to opt into bearer authentication.
const securityScheme = "BearerAuth"

// NewAuth returns a huma middleware that enforces bearer authentication on
// operations declaring the BearerAuth security requirement. On success the
// account ID from the token subject is placed in the request context; other
// operations pass through untouched.
func NewAuth(api huma.API, issuer *token.Issuer, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresAuth(ctx.Operation()) {
			next(ctx)
			return
		}

		raw := bearerToken(ctx.Header("Authorization"))
		if raw == "" {
			huma.WriteErr(api, ctx, 401, "missing bearer token")
			return
		}

		claims, err := issuer.VerifyAccess(raw)
		if err != nil {
			logger.Warn("rejected bearer token", "error", err)
			huma.WriteErr(api, ctx, 401, "invalid or expired token")
			return
		}

		next(huma.WithValue(ctx, contextx.AccountIDKey, claims.Subject))
	}
}

// OriginIP records the caller's address in the request context so services
// can attach it to login-history entries. It runs after chi's RealIP so the
// address reflects forwarding headers.
func OriginIP(ctx huma.Context, next func(huma.Context)) {
	r, _ := humachi.Unwrap(ctx)
	if r == nil {
		next(ctx)
		return
	}
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	next(huma.WithValue(ctx, contextx.OriginIPKey, addr))
}

func requiresAuth(op *huma.Operation) bool {
	if op == nil {
		return false
	}
	for _, req := range op.Security {
		if _, ok := req[securityScheme]; ok {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
