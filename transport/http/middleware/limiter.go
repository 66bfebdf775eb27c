package middleware

import (
	"net"
	"net/http"
	"parking/shared"
	"parking/shared/constant"
	"parking/transport/http/response"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	cacheKeyRateLimit = "limiter"
)

// RateLimit counts requests per client and route group in a fixed window.
// Calls carrying an API key come from trusted systems and are not counted.
// Cache failures let the request through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limits := a.config.App.RateLimiter
			if !limits.Enable || limits.MaxRequests <= 0 || r.Header.Get(constant.RequestHeaderAPIKey) != "" {
				next.ServeHTTP(w, r)

				return
			}

			key := shared.BuildCacheKey(cacheKeyRateLimit, routeGroup(r.URL.Path), a.getClientIP(r), a.getUA(r))

			count, ok := a.hit(r, key, limits.WindowSeconds)
			if !ok {
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(limits.MaxRequests))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.Itoa(max(0, limits.MaxRequests-count)))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(limits.WindowSeconds))

			if count > limits.MaxRequests {
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hit records one request under key and returns the count inside the
// current window. ok is false when the cache could not be used.
func (a *appMiddleware) hit(r *http.Request, key string, windowSeconds int) (int, bool) {
	count, err := a.cache.Increment(r.Context(), key, windowSeconds)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiter cache unavailable")

		return 0, false
	}

	return int(count), true
}

// routeGroup is the first resource segment after the version prefix, so
// that gate scans and booking reads are limited separately.
func routeGroup(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 1 && strings.HasPrefix(segments[0], "v") {
		return segments[1]
	}

	return segments[0]
}

func (a *appMiddleware) getUA(r *http.Request) string {
	ua := r.Header.Get(constant.RequestHeaderUserAgent)
	if ua == "" {
		ua = "unknown"
	}

	return ua
}

func (a *appMiddleware) getClientIP(r *http.Request) string {
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
