package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielcastano/abasto-backend/api/responses"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

const (
	fallbackPolicyName = "auth"
	ipKeyPrefix        = "rl:ip:"
	emailKeyPrefix     = "rl:email:"
)

type attemptCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy caps login attempts within a fixed window, counted
// both per source IP and per target account.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a named policy. A zero window, or zero for
// both limits, produces a policy that never throttles.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) label() string {
	if p.name == "" {
		return fallbackPolicyName
	}
	return p.name
}

// AuthRateLimit throttles an auth endpoint with fixed-window counters in
// the shared store. The IP counter runs first so a flood from one address
// never touches the request body; the email counter reads the body and
// rewinds it for the handler underneath.
func AuthRateLimit(policy AuthRateLimitPolicy, store attemptCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}
		lim := &authLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				ip := requestIP(r)
				if ip != "" && !lim.admit(ctx, w, ipKeyPrefix+policy.label()+":"+ip, policy.ipLimit, "ip", ip) {
					return
				}
			}

			if policy.emailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if digest := emailDigest(body); digest != "" {
					if !lim.admit(ctx, w, emailKeyPrefix+policy.label()+":"+digest, policy.emailLimit, "email", digest) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  attemptCounter
	logg   *logger.Logger
}

// admit bumps the counter behind key and reports whether the request may
// proceed. Store failures and exhausted counters both write the response
// themselves.
func (l *authLimiter) admit(ctx context.Context, w http.ResponseWriter, key string, limit int, scope, subject string) bool {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if l.logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         l.policy.label(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
		}
		switch scope {
		case "ip":
			fields["ip"] = subject
		case "email":
			fields["email_hash"] = subject
		}
		logCtx := l.logg.WithFields(ctx, fields)
		l.logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return false
}

// requestIP prefers proxy headers over the socket peer so limits follow
// the original client through the load balancer.
func requestIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, hop := range strings.Split(forwarded, ",") {
			if ip := strings.TrimSpace(hop); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// emailDigest hashes the lowercased email from a login payload so the raw
// address never reaches the store or the logs. Returns "" when the payload
// carries no usable email.
func emailDigest(payload []byte) string {
	var login struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &login); err != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(login.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
