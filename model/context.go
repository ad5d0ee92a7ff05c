package model

import "context"

// RequestContext carries the identity and correlation information attached to
// an incoming request. It is immutable after construction and safe for
// concurrent reads. Authentication itself is an external concern; the
// transport layer populates this from whatever middleware the host injects.
type RequestContext struct {
	SubjectID     string
	CorrelationID string
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context, or returns
// nil if not present.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rctx, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rctx
}
