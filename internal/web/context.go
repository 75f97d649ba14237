package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/gridview/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// ticket write log.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // rewritten by TrustedRealIP
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
