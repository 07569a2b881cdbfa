package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alextreichler/tienda/internal/config"
	"github.com/alextreichler/tienda/internal/events"
	"github.com/alextreichler/tienda/internal/handlers"
	"github.com/alextreichler/tienda/internal/media"
	"github.com/alextreichler/tienda/internal/store"
	"github.com/alextreichler/tienda/web"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	if cfg.LogFormat == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Templates, media and events
	var templateFS fs.FS = web.Templates()
	if cfg.TemplateDir != "" {
		templateFS = os.DirFS(cfg.TemplateDir)
	}
	templates := handlers.NewTemplateCache()
	if err := templates.Load(templateFS); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	library, err := media.NewLibrary(cfg.MediaDir)
	if err != nil {
		slog.Error("Failed to prepare media directory", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		slog.Info("Publishing order events to Kafka", "brokers", brokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", "error", err)
		}
	}()

	// 5. Routes
	limiter := handlers.NewRateLimiter(cfg.OrderRatePerMinute, cfg.OrderRateBurst)
	defer limiter.Close()

	router := handlers.NewRouter(handlers.RouterOptions{
		Store:        db,
		Templates:    templates,
		SessionStore: sessionStore,
		Media:        library,
		Events:       publisher,
		Static:       web.Static(),
		Limiter:      limiter,
		RequireLogin: cfg.BackofficeAuth,
	})
	if !cfg.BackofficeAuth {
		slog.Warn("BACKOFFICE_AUTH is off: management pages are open to everyone")
	}

	// 6. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Router
	var protected http.Handler = CSRF(router)
	if !cfg.CookieSecure {
		protected = plaintext(protected)
	}
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(protected),
	)

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}

// plaintext tells the CSRF check that requests arrive over plain HTTP, so it
// skips the HTTPS-only referer check during local development.
func plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
