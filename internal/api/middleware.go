package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLen = 128

// RequestIDMiddleware wraps chi's middleware.RequestID: an incoming
// X-Request-Id is reused unless it is longer than maxRequestIDLen, and the id
// in effect is echoed on the response. Read it with middleware.GetReqID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRequestID, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r)
	})
	withID := middleware.RequestID(echo)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.Header.Get(HeaderRequestID)) > maxRequestIDLen {
			r.Header.Del(HeaderRequestID)
		}
		withID.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware returns middleware guarding operational endpoints.
// If token is empty every request is let through; otherwise the request must
// carry "Authorization: Bearer <token>".
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				Unauthorized(w, r)
				return
			}
			bearerValue := authHeader[len(prefix):]
			if subtle.ConstantTimeCompare([]byte(bearerValue), []byte(token)) != 1 {
				Unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
