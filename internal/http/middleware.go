package http

import (
	"context"
	"net"
	"net/http"

	"github.com/openpantry/barcode-resolver/internal/auth"
	rl "github.com/openpantry/barcode-resolver/internal/http/rate_limiter"
)

type contextKey string

const curatorKey = contextKey("curator")

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := auth.TokenClaims(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		curator, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), curatorKey, curator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.GetVisitor(ip).Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
