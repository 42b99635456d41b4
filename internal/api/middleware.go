package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/storage/entity"
)

const callerKey = "caller"

func (a *API) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if u, ok := c.Get(callerKey); ok {
			fields = append(fields, zap.Int64("user", u.(*entity.User).ID))
		}
		a.logger.Debug("Handled request.", fields...)
	}
}

func (a *API) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.config.MaxBodySize > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.config.MaxBodySize)
		}
		c.Next()
	}
}

// authenticate resolves the bearer token to the calling user and rejects the request otherwise.
func (a *API) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		const prefix = "bearer "
		if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
			a.abort(c, auth.ErrInvalidCredentials)
			return
		}

		u, err := a.service.Authenticate(c.Request.Context(), strings.TrimSpace(h[len(prefix):]))
		if err != nil {
			a.abort(c, err)
			return
		}
		c.Set(callerKey, u)
		c.Next()
	}
}

func caller(c *gin.Context) *entity.User {
	return c.MustGet(callerKey).(*entity.User)
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{visitors: map[string]*visitor{}, limit: rate.Limit(perSecond), burst: burst}
}

func (l *rateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = now
	return v.limiter.AllowN(now, 1)
}

func (l *rateLimiter) prune(before time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if v.seen.Before(before) {
			delete(l.visitors, ip)
		}
	}
}

func (l *rateLimiter) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.prune(now.Add(-3 * every))
		}
	}
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many requests"})
			return
		}
		c.Next()
	}
}
