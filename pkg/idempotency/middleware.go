package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

const HeaderKey = "Idempotency-Key"

type Checker interface {
	Key(method, path, requestKey string) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Middleware rejects replays of mutating requests that carry an
// Idempotency-Key header. Requests without the header pass through
// untouched, as do all reads. A checker failure fails open: dropping
// duplicate protection is preferable to refusing every write while
// redis is down.
func Middleware(log *slog.Logger, checker Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestKey := r.Header.Get(HeaderKey)
			if requestKey == "" || (r.Method != http.MethodPost && r.Method != http.MethodPut) {
				next.ServeHTTP(w, r)
				return
			}

			key := checker.Key(r.Method, r.URL.Path, requestKey)
			seen, err := checker.Seen(r.Context(), key)
			if err != nil {
				log.Error("idempotency check failed", "key", key, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "duplicate request"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
