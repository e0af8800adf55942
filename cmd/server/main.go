package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitecraft/backend/internal/config"
	"github.com/sitecraft/backend/internal/handler"
	"github.com/sitecraft/backend/internal/logging"
	"github.com/sitecraft/backend/internal/mailer"
	"github.com/sitecraft/backend/internal/metrics"
	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
	"github.com/sitecraft/backend/internal/service"
	"github.com/sitecraft/backend/internal/storage"
	"github.com/sitecraft/backend/pkg/auth"
)

func main() {
	cfg, err := config.Load("", "")
	if err != nil {
		logging.Fatal("load config failed", "error", err)
	}
	logging.Setup(logging.FromEnv(cfg.Env))

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	inquiryRepo := repository.NewPgInquiryRepository(pool)
	replyRepo := repository.NewPgReplyRepository(pool)
	settingRepo := repository.NewPgSettingRepository(pool)
	adminRepo := repository.NewPgAdminUserRepository(pool)

	// メール設定が不完全でも API は起動する（通知のみ無効）
	var notifier service.Notifier
	mailCfg := cfg.MailerConfig()
	if err := mailCfg.Validate(); err != nil {
		slog.Warn("mail notifications disabled", "error", err)
	} else {
		notifier = mailer.New(mailCfg, mailer.WithLogger(slog.Default().With("component", "mailer")))
	}

	files := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	sessionSecret := auth.SessionSecretBytes(cfg.Session.Secret)

	inquiryService := service.NewInquiryService(inquiryRepo, replyRepo, notifier, files)
	settingsService := service.NewSettingsService(settingRepo)
	authService := service.NewAuthService(adminRepo, sessionSecret, cfg.Session.TTL)

	h := handler.New(pool, cfg.Server.FrontendURL)
	inquiryHandler := handler.NewInquiryHandler(inquiryService, cfg.Uploads.MaxBytes)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	authHandler := handler.NewAuthHandler(authService, cfg.Session.TTL, cfg.Session.CookieSecure)
	uploadHandler := handler.NewUploadHandler(files, cfg.Uploads.MaxBytes)

	serviceHandler := handler.NewContentHandler(
		service.NewContentService[model.Service](repository.NewPgServiceRepository(pool), service.ServiceRules), "services")
	productHandler := handler.NewContentHandler(
		service.NewContentService[model.Product](repository.NewPgProductRepository(pool), service.ProductRules), "products")
	clientHandler := handler.NewContentHandler(
		service.NewContentService[model.Client](repository.NewPgClientRepository(pool), service.ClientRules), "clients")
	projectHandler := handler.NewContentHandler(
		service.NewContentService[model.Project](repository.NewPgProjectRepository(pool), service.ProjectRules), "projects").
		WithDecoder(handler.DecodeProject)
	galleryHandler := handler.NewContentHandler(
		service.NewContentService[model.GalleryItem](repository.NewPgGalleryRepository(pool), service.GalleryRules), "gallery")

	contactLimiter, loginLimiter := newLimiters(ctx, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	prefix := strings.TrimSuffix(cfg.Uploads.URLPrefix, "/") + "/"
	mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Uploads.Dir))))

	// 公開 API
	mux.Handle("POST /api/contact", contactLimiter.Middleware(http.HandlerFunc(inquiryHandler.Submit)))
	mux.HandleFunc("GET /api/settings", settingsHandler.Get)
	mux.HandleFunc("GET /api/services", serviceHandler.List)
	mux.HandleFunc("GET /api/services/{slug}", serviceHandler.GetBySlug)
	mux.HandleFunc("GET /api/products", productHandler.List)
	mux.HandleFunc("GET /api/products/{slug}", productHandler.GetBySlug)
	mux.HandleFunc("GET /api/clients", clientHandler.List)
	mux.HandleFunc("GET /api/projects", projectHandler.List)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.Get)
	mux.HandleFunc("GET /api/gallery", galleryHandler.List)

	// 管理者認証
	mux.Handle("POST /api/admin/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/admin/logout", authHandler.Logout)

	requireAdmin := auth.RequireAdmin(sessionSecret)
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(fn))
	}
	admin("GET /api/admin/me", authHandler.Me)

	admin("GET /api/admin/inquiries", inquiryHandler.AdminList)
	admin("GET /api/admin/inquiries/counts", inquiryHandler.AdminCounts)
	admin("GET /api/admin/inquiries/{id}", inquiryHandler.AdminGet)
	admin("PATCH /api/admin/inquiries/{id}/status", inquiryHandler.AdminUpdateStatus)
	admin("POST /api/admin/inquiries/{id}/reply", inquiryHandler.AdminReply)
	admin("DELETE /api/admin/inquiries/{id}", inquiryHandler.AdminDelete)

	admin("GET /api/admin/settings", settingsHandler.Get)
	admin("PUT /api/admin/settings", settingsHandler.Update)
	admin("POST /api/admin/uploads", uploadHandler.Upload)

	registerContent(mux, admin, "services", serviceHandler)
	registerContent(mux, admin, "products", productHandler)
	registerContent(mux, admin, "clients", clientHandler)
	registerContent(mux, admin, "projects", projectHandler)
	registerContent(mux, admin, "gallery", galleryHandler)

	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		// 返信メールの送信を待つため長めに取る
		writeTimeout = 90 * time.Second
	}
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "env", cfg.Env, "mail_enabled", notifier != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// registerContent mounts the admin CRUD routes of one catalog kind.
func registerContent[T any](mux *http.ServeMux, admin func(string, http.HandlerFunc), kind string, ch *handler.ContentHandler[T]) {
	base := "/api/admin/" + kind
	admin("GET "+base, ch.AdminList)
	admin("POST "+base, ch.Create)
	admin("PUT "+base+"/reorder", ch.Reorder)
	admin("GET "+base+"/{id}", ch.AdminGet)
	admin("PUT "+base+"/{id}", ch.Update)
	admin("DELETE "+base+"/{id}", ch.Delete)
}

// newLimiters returns the contact and login rate limiters, shared through
// Redis when it is configured and reachable.
func newLimiters(ctx context.Context, cfg *config.Config) (contact, login *handler.RateLimiter) {
	rl := cfg.RateLimit
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			slog.Info("rate limiter using redis", "addr", cfg.Redis.Addr)
			return handler.NewRateLimiter("contact", handler.NewRedisLimiter(rdb, "ratelimit", rl.ContactLimit, rl.ContactWindow)),
				handler.NewRateLimiter("login", handler.NewRedisLimiter(rdb, "ratelimit", rl.LoginLimit, rl.LoginWindow))
		}
		slog.Warn("redis unreachable, rate limiting in memory", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
	}
	return handler.NewRateLimiter("contact", handler.NewMemoryLimiter(rl.ContactLimit, rl.ContactWindow)),
		handler.NewRateLimiter("login", handler.NewMemoryLimiter(rl.LoginLimit, rl.LoginWindow))
}
