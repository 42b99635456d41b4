package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/service"
)

type Config struct {
	Port        uint16
	CorsOrigins []string
	RateLimit   float64
	RateBurst   int
	// MaxBodySize bounds every request body, uploads included.
	MaxBodySize int64
}

func NewConfig(port uint16, corsOrigins []string, rateLimit float64, rateBurst int, maxBodySize int64) *Config {
	return &Config{Port: port, CorsOrigins: corsOrigins, RateLimit: rateLimit, RateBurst: rateBurst, MaxBodySize: maxBodySize}
}

type API struct {
	ctx     context.Context
	logger  *zap.Logger
	service *service.Service
	media   *media.Store
	config  *Config
	limiter *rateLimiter
	router  *gin.Engine
	serv    *http.Server
}

func NewAPI(ctx context.Context, logger *zap.Logger, svc *service.Service, mediaStore *media.Store, config *Config) *API {
	a := &API{
		ctx:     ctx,
		logger:  logger,
		service: svc,
		media:   mediaStore,
		config:  config,
		router:  gin.New(),
	}
	if config.RateLimit > 0 {
		a.limiter = newRateLimiter(config.RateLimit, config.RateBurst)
	}
	a.serv = &http.Server{Addr: fmt.Sprintf(":%d", config.Port), Handler: a.router}
	a.register()
	return a
}

func (a *API) register() {
	a.router.Use(gin.Recovery(), a.accessLog())
	a.router.Use(cors.New(a.corsConfig()))
	if a.limiter != nil {
		a.router.Use(a.limiter.middleware())
	}
	a.router.Use(a.limitBody())

	a.router.Static(a.media.URLPrefix(), a.media.Root())
	a.registerGetRoot()

	a.registerUsers()
	a.registerFollows()
	a.registerPosts()
	a.registerReels()
	a.registerComments()
	a.registerVotes()
}

func (a *API) corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(a.config.CorsOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	for _, o := range a.config.CorsOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = a.config.CorsOrigins
	c.AllowCredentials = true
	return c
}

// Handler exposes the router, mostly for tests.
func (a *API) Handler() http.Handler {
	return a.router
}

func (a *API) Listen() {
	if a.limiter != nil {
		go a.limiter.sweep(a.ctx, time.Minute)
	}
	go func() {
		if err := a.serv.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Sugar().Errorf("Server returned with error: %s.", err)
			}
		}
	}()
}

func (a *API) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.serv.Shutdown(ctx)
}

// registerGetRoot GET /
func (a *API) registerGetRoot() {
	a.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
	})
}
