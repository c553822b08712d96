// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/license-backend/internal/config"
	"github.com/javajoker/license-backend/internal/handlers"
	"github.com/javajoker/license-backend/internal/middleware"
	"github.com/javajoker/license-backend/internal/services"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

const (
	Version = "1.0.0"

	healthTimeout = 2 * time.Second
)

// Router is the HTTP surface of the service. Stop releases the limiters'
// background goroutines.
type Router struct {
	*gin.Engine

	verifyLimiter *middleware.FixedWindowLimiter
	authLimiter   *middleware.RateLimiter
}

// Initialize wires the routes. s may be nil, in which case the license
// routes answer 503 and /health reports the store as unconfigured.
func Initialize(s store.LicenseKeyStore, cfg *config.Config) (*Router, error) {
	passwords, err := services.NewPasswordHasher(cfg.License.PasswordHashScheme, cfg.License.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	// Initialize services
	licenseService := services.NewLicenseService(s, passwords)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(licenseService)
	verificationHandler := handlers.NewVerificationHandler(licenseService)

	metrics := middleware.NewMetrics()
	rt := &Router{
		Engine:        gin.New(),
		verifyLimiter: middleware.NewFixedWindowLimiter(cfg.RateLimit.VerifyMax, cfg.RateLimit.VerifyWindow),
		authLimiter:   middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.AuthRPS), cfg.RateLimit.AuthBurst),
	}
	r := rt.Engine

	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		rt.Stop()
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(metrics.Middleware())
	r.Use(middleware.AuditLogMiddleware(s, metrics, cfg.Audit.Enabled))

	r.NoMethod(func(c *gin.Context) {
		if strings.HasSuffix(c.Request.URL.Path, "/verify") || strings.HasSuffix(c.Request.URL.Path, "/verify-key") {
			utils.SetResponseFlag(c, utils.FlagValid)
		}
		utils.MethodNotAllowedResponse(c)
	})

	// Health check
	r.GET("/health", healthHandler(s))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// Account routes, served at the root and under /api
	for _, prefix := range []string{"", "/api"} {
		accounts := r.Group(prefix,
			middleware.ResponseFlag(utils.FlagSuccess),
			middleware.RequireStore(s),
			middleware.RateLimit(rt.authLimiter, metrics),
		)
		{
			accounts.POST("/register", authHandler.Register)
			accounts.POST("/login", authHandler.Login)
		}
	}

	// Verification is anonymous, so every caller passes the fixed window
	// limiter before the body is read.
	verify := r.Group("",
		middleware.ResponseFlag(utils.FlagValid),
		middleware.RequireStore(s),
		middleware.RateLimit(rt.verifyLimiter, metrics),
	)
	{
		verify.POST("/verify", verificationHandler.Verify)
		verify.POST("/api/verify-key", verificationHandler.Verify)
	}

	return rt, nil
}

func (rt *Router) Stop() {
	rt.verifyLimiter.Stop()
	rt.authLimiter.Stop()
}

func healthHandler(s store.LicenseKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unconfigured",
				"version": Version,
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"version": Version,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": Version,
		})
	}
}
