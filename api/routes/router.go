package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercapi/mercapi-backend/api/controllers"
	"github.com/mercapi/mercapi-backend/api/middleware"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/db"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	catalogService controllers.CatalogService,
	finder controllers.CandidateFinder,
	ticketService controllers.TicketService,
	reportService controllers.ReportService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigin),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/closest", controllers.ClosestProducts(catalogService, finder, logg))
			r.Get("/high-protein", controllers.HighProteinProducts(catalogService, logg))
			r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
		})

		r.Get("/categories", controllers.ListCategories(catalogService, logg))

		r.Post("/tickets", controllers.ProcessTicket(ticketService, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Post("/wrong-match", controllers.SubmitWrongMatch(reportService, logg))
			r.Post("/wrong-nutrition", controllers.SubmitWrongNutrition(reportService, logg))
		})
	})

	return r
}
