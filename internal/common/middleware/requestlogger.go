package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/common/logtrace"
	"github.com/tansive/assetvault/internal/common/uuid"
)

const RequestIdHeader = "X-Asset-Request-ID"

// RequestLogger is a middleware that logs the request details and adds a unique request ID to the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := newRequestId()
		ctx = context.WithValue(ctx, logtrace.RequestIdKey, requestID)
		// Add a sub-logger with requestId to context
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)
		w.Header().Set(RequestIdHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		requestURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI)
		requestFields := map[string]interface{}{
			"requestURL":    requestURL,
			"requestMethod": r.Method,
			"requestPath":   r.URL.Path,
			"remoteIP":      r.RemoteAddr,
			"proto":         r.Proto,
		}
		log.Ctx(ctx).Info().Fields(requestFields).Msg("")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newRequestId returns a time ordered request id.
func newRequestId() string {
	return uuid.New().String()
}
