package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/speak2see-backend/api/controllers"
	"github.com/angelmondragon/speak2see-backend/api/middleware"
	"github.com/angelmondragon/speak2see-backend/internal/intake"
	"github.com/angelmondragon/speak2see-backend/internal/query"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/speak2see-backend/pkg/redis"
)

const uploadPolicyName = "upload"

// RedisStore backs upload rate limiting and idempotency.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Intake      intake.Service
	Query       query.Service
	Redis       RedisStore
	Readiness   map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(nil),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	uploadPolicy := middleware.NewRateLimitPolicy(uploadPolicyName, cfg.Intake.UploadWindow, cfg.Intake.UploadLimit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(cfg.Intake.MaxAudioBytes))
			if p.Redis != nil {
				r.Use(middleware.OwnerRateLimit(uploadPolicy, p.Redis, logg))
				r.Use(middleware.Idempotency(p.Redis, 0, logg))
			}
			r.Post("/upload", controllers.Upload(p.Intake, logg))
		})

		r.Get("/getAll", controllers.ListItems(p.Query, logg))
		r.Get("/get", controllers.GetItem(p.Query, logg))
		r.Get("/get/{itemID}", controllers.GetItem(p.Query, logg))
	})

	return r
}
