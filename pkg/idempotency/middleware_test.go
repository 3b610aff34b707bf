package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	seen map[string]bool
	err  error
}

func (c *fakeChecker) Key(method, path, requestKey string) string {
	return fmt.Sprintf("idem:%s:%s:%s", method, path, requestKey)
}

func (c *fakeChecker) Seen(ctx context.Context, key string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.seen[key] {
		return true, nil
	}
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	c.seen[key] = true
	return false, nil
}

func newHandler(checker Checker) http.Handler {
	log := slog.New(slog.DiscardHandler)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return Middleware(log, checker)(next)
}

func TestMiddlewareRejectsReplay(t *testing.T) {
	h := newHandler(&fakeChecker{})

	first := httptest.NewRequest(http.MethodPost, "/orders/createOrder", strings.NewReader("{}"))
	first.Header.Set(HeaderKey, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusCreated, rec.Code)

	replay := httptest.NewRequest(http.MethodPost, "/orders/createOrder", strings.NewReader("{}"))
	replay.Header.Set(HeaderKey, "req-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, replay)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate request")
}

func TestMiddlewareIgnoresRequestsWithoutKey(t *testing.T) {
	h := newHandler(&fakeChecker{})

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/orders/createOrder", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestMiddlewareIgnoresReads(t *testing.T) {
	h := newHandler(&fakeChecker{})

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set(HeaderKey, "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := newHandler(&fakeChecker{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodPost, "/orders/createOrder", strings.NewReader("{}"))
	req.Header.Set(HeaderKey, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
