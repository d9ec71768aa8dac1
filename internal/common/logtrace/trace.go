package logtrace

import (
	"context"
	"os"
)

type requestIdContextKey string

const RequestIdKey = requestIdContextKey("requestId")

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(RequestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}

// IsTraceEnabled reports whether route tracing was requested through ASSETSRV_TRACE.
func IsTraceEnabled() bool {
	return os.Getenv("ASSETSRV_TRACE") == "1"
}
