package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/common/httpx"
)

func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Ctx(r.Context()).Error().Str("stack", string(debug.Stack())).Msgf("Panic occurred: %v", err)
				httpx.ErrApplicationError("Unable to process request. Please try again later.").Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
