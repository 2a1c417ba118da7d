package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"prodexa/docs" //this is required to generate swagger docs
	"prodexa/internal/auth"
	"prodexa/internal/domain/storage"
	"prodexa/internal/media"
	"prodexa/internal/ratelimiter"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	media         media.Store
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	dbDriver    string
	db          dbConfig
	mongo       mongoConfig
	media       mediaConfig
	auth        authConfig
	redis       redisConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
	aud    string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type mongoConfig struct {
	uri      string
	database string
}

type mediaConfig struct {
	cloudinaryURL string
	folder        string
	uploadDir     string
}

type redisConfig struct {
	addr string
	pw   string
	db   int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	if app.config.media.cloudinaryURL == "" && app.config.media.uploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.config.media.uploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/api/swagger/doc.json", app.config.apiURL)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.registerUserHandler)
			r.Post("/login", app.loginHandler)
			r.With(app.AuthTokenMiddleware).Get("/me", app.getCurrentUserHandler)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategoriesHandler)
			r.Get("/with-subcategories", app.listCategoriesWithSubCategoriesHandler)
			r.Get("/subcategories/all", app.listAllSubCategoriesHandler)
			r.With(app.AuthTokenMiddleware).Post("/", app.createCategoryHandler)
			r.With(app.AuthTokenMiddleware).Post("/subcategories", app.createSubCategoryHandler)

			r.Route("/{categoryID}", func(r chi.Router) {
				r.Get("/", app.getCategoryHandler)
				r.With(app.AuthTokenMiddleware).Put("/", app.updateCategoryHandler)
				r.With(app.AuthTokenMiddleware).Delete("/", app.deleteCategoryHandler)

				r.Get("/subcategories", app.listSubCategoriesHandler)
				r.Route("/subcategories/{subCategoryID}", func(r chi.Router) {
					r.Get("/", app.getSubCategoryHandler)
					r.With(app.AuthTokenMiddleware).Put("/", app.updateSubCategoryHandler)
					r.With(app.AuthTokenMiddleware).Delete("/", app.deleteSubCategoryHandler)
				})
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/featured", app.listFeaturedProductsHandler)
			r.With(app.AuthTokenMiddleware).Get("/export", app.exportProductsHandler)
			r.With(app.AuthTokenMiddleware).Post("/", app.createProductHandler)

			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", app.getProductHandler)
				r.Get("/variants", app.listVariantsHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Put("/", app.updateProductHandler)
					r.Delete("/", app.deleteProductHandler)
					r.Put("/featured", app.toggleFeaturedHandler)
					r.Post("/variants", app.addVariantHandler)
					r.Put("/variants/{variantID}", app.updateVariantHandler)
					r.Delete("/variants/{variantID}", app.deleteVariantHandler)
				})
			})
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getWishlistHandler)
			r.Post("/add", app.addToWishlistHandler)
			r.Delete("/remove/{productID}", app.removeFromWishlistHandler)
			r.Get("/check/{productID}", app.checkWishlistHandler)
		})
	})
	return r
}

// allowedOrigins limits CORS to the frontend when one is configured.
func (app *application) allowedOrigins() []string {
	if app.config.frontendURL != "" {
		return []string{app.config.frontendURL}
	}
	return []string{"https://*", "http://*"}
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/api"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
