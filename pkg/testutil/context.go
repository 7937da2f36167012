package testutil

import (
	"context"
	"time"

	"agencyhub/pkg/requestcontext"
)

// RequestContext returns the context the request middleware would build for
// an authenticated caller at now.
func RequestContext(userID, requestID string, now time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, requestID)
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	return ctx
}
