package api

import (
	"net/http"
	"time"

	"github.com/athebyme/pricewatch-service/internal/api/handlers"
	"github.com/athebyme/pricewatch-service/internal/api/middleware"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services собирает доменные сервисы, нужные HTTP-слою
type Services struct {
	Products   *services.ProductService
	Holidays   *services.HolidayService
	Crawls     *services.CrawlService
	Wishlists  *services.WishlistService
	Detections *services.DetectionService
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(svc Services, logger interfaces.LoggerPort, corsAllowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(corsAllowedOrigins))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	productHandler := handlers.NewProductHandler(svc.Products, svc.Detections, logger)
	holidayHandler := handlers.NewHolidayHandler(svc.Holidays, logger)
	crawlHandler := handlers.NewCrawlHandler(svc.Crawls, logger)
	wishlistHandler := handlers.NewWishlistHandler(svc.Wishlists, logger)
	categoryHandler := handlers.NewCategoryHandler(svc.Products, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Маршруты для товаров
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/fake-discounts", productHandler.ListFakeDiscounts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Get("/detail", productHandler.GetDetail)
				r.Get("/history", productHandler.GetPriceHistory)
				r.Get("/detections", productHandler.ListDetections)
			})
		})

		// Маршруты для категорий
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
		})

		// Маршруты для праздников
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", holidayHandler.ListHolidays)
			r.Post("/", holidayHandler.CreateHoliday)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", holidayHandler.GetHoliday)
				r.Put("/monitoring-period", holidayHandler.UpdateMonitoringPeriod)
				r.Put("/active", holidayHandler.SetActive)
			})
		})

		// Маршруты для обходов
		r.Route("/crawl", func(r chi.Router) {
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", crawlHandler.ListJobs)
				r.Post("/", crawlHandler.TriggerScan)
				r.Get("/{id}", crawlHandler.GetJob)
			})
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", crawlHandler.ListRequests)
				r.Post("/", crawlHandler.SubmitRequest)
				r.Get("/{id}", crawlHandler.GetRequest)
			})
		})

		// Маршруты для избранного
		r.Route("/wishlists", func(r chi.Router) {
			r.Get("/", wishlistHandler.ListByUser)
			r.Post("/", wishlistHandler.Add)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/target-price", wishlistHandler.UpdateTargetPrice)
				r.Delete("/", wishlistHandler.Remove)
			})
		})
	})

	return r
}
