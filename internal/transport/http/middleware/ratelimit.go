package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"hris/internal/transport/http/api"
)

const rateLimitPrefix = "hris_ratelimit"

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: time.Minute,
	})
}

// NewRedisStore shares counters between instances through redis.
func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{
		Prefix:   rateLimitPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "redis rate limit store")
	}
	return store, nil
}

// keyFunc names the caller a counter belongs to.
type keyFunc func(r *http.Request) string

// budget is one family of counters sharing a rate.
type budget struct {
	name string
	lim  *limiter.Limiter
	key  keyFunc
}

func newBudget(name string, store limiter.Store, limit int, window time.Duration, key keyFunc) *budget {
	b := &budget{name: name, key: key}
	if store != nil && limit > 0 {
		b.lim = limiter.New(store, limiter.Rate{Period: window, Limit: int64(limit)})
	}
	return b
}

// RateLimit allows limit requests per window for each caller, keyed by user
// when authenticated and by client IP otherwise.
func RateLimit(store limiter.Store, limit int, window time.Duration) func(http.Handler) http.Handler {
	return guard(func(*http.Request) []*budget { return nil }, newBudget("global", store, limit, window, actorKey))
}

// SensitiveMutationRateLimit adds tighter budgets on top of the global one.
// Credential endpoints are limited per IP and per submitted email. Approval
// decisions, payroll finalization and invitations are limited per actor.
func SensitiveMutationRateLimit(store limiter.Store, baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	credentialLimit := max(baseLimit/4, 1)
	credentials := []*budget{
		newBudget("auth_ip", store, credentialLimit, window, ipKey),
		newBudget("auth_email", store, credentialLimit, window, bodyEmailKey),
	}
	decisions := []*budget{
		newBudget("sensitive", store, max(baseLimit/2, 1), window, actorKey),
	}
	return guard(func(r *http.Request) []*budget {
		switch sensitiveScope(r.Method, r.URL.Path) {
		case scopeCredentials:
			return credentials
		case scopeDecision:
			return decisions
		}
		return nil
	})
}

// guard applies the fixed budgets and then the ones chosen for the request.
// The first exhausted budget answers 429.
func guard(pick func(*http.Request) []*budget, fixed ...*budget) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, b := range fixed {
				if !b.allow(w, r) {
					return
				}
			}
			for _, b := range pick(r) {
				if !b.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow fails open when the store errors.
func (b *budget) allow(w http.ResponseWriter, r *http.Request) bool {
	if b.lim == nil {
		return true
	}
	key := b.key(r)
	if key == "" {
		key = ipKey(r)
	}
	lctx, err := b.lim.Get(r.Context(), b.name+":"+key)
	if err != nil {
		slog.WarnContext(r.Context(), "rate limiter unavailable", "limiter", b.name, "err", err)
		return true
	}

	resetIn := int(time.Until(time.Unix(lctx.Reset, 0)).Round(time.Second).Seconds())
	resetIn = max(resetIn, 0)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if !lctx.Reached {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.WarnContext(r.Context(), "rate limit exceeded",
		"limiter", b.name, "key", key, "method", r.Method, "path", r.URL.Path, "limit", lctx.Limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return ipKey(r)
}

func ipKey(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// bodyEmailKey peeks at the JSON body for an email address and restores the
// body for the handler.
func bodyEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}

type scope int

const (
	scopeNone scope = iota
	scopeCredentials
	scopeDecision
)

var credentialPaths = map[string]bool{
	"/auth/login":         true,
	"/auth/2fa/verify":    true,
	"/auth/request-reset": true,
	"/auth/reset":         true,
	"/auth/set-password":  true,
}

var decisionSuffixes = []string{"/approve", "/reject", "/finalize"}

func sensitiveScope(method, path string) scope {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}
	path = "/" + strings.Trim(strings.TrimPrefix(path, "/api/v1"), "/")
	if credentialPaths[path] {
		return scopeCredentials
	}
	if path == "/invitations" || path == "/invitations/bulk" {
		return scopeDecision
	}
	for _, suffix := range decisionSuffixes {
		if strings.HasSuffix(path, suffix) {
			return scopeDecision
		}
	}
	return scopeNone
}
