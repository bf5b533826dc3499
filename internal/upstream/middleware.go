package upstream

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	ctxKeyRequestID = "requestID"
	ctxKeyLogger    = "logger"
)

// requestID propagates the incoming X-Request-ID or mints a UUIDv4, and
// echoes it on the response so clients can correlate logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, rid)
		c.Writer.Header().Set(headerRequestID, rid)
		c.Next()
	}
}

// accessLog emits one structured line per request and stores a
// request-scoped logger in the Gin context. Level follows the outcome:
// error for 5xx, warn for 4xx, info otherwise.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid, _ := c.Get(ctxKeyRequestID)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("user_id", c.GetHeader(headerUserID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(ctxKeyLogger, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()
		switch {
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// recovery converts panics into the API's {"error": ...} envelope with
// status 500, after logging the stack.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(ctxKeyRequestID)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// loggerFrom returns the request-scoped logger, or the global one when
// accessLog has not run.
func loggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// ----------------------------------------------------------------------------
// Prometheus instrumentation

var (
	apiReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_api_requests_total",
			Help: "Total number of feedback API requests.",
		},
		[]string{"method", "path", "status"},
	)

	apiLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedback_api_request_duration_seconds",
			Help:    "Duration of feedback API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	apiInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedback_api_requests_inflight",
			Help: "Current number of in-flight feedback API requests.",
		},
	)
)

func init() {
	prometheus.MustRegister(apiReqs, apiLat, apiInflight)
}

// collectMetrics records request counts, latency and in-flight gauge.
// The path label uses the registered route to keep cardinality bounded.
func collectMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		apiInflight.Inc()
		defer apiInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		apiReqs.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		apiLat.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ----------------------------------------------------------------------------
// Rate limiting

// rateLimiter keeps one token bucket per caller, keyed by the X-User-ID
// header when present and the client IP otherwise. Idle buckets are
// evicted opportunistically to bound memory. Process-local only.
type rateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

func (rl *rateLimiter) bucket(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// GC before the lookup so a stale entry for this key is evicted too.
	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

func (rl *rateLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := c.GetHeader(headerUserID); uid != "" {
			key = "user:" + uid
		}
		if rl.bucket(key).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}
