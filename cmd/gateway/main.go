package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/mind-engage/mindengage-cbt/internal/api/http"
	auth "github.com/mind-engage/mindengage-cbt/internal/auth/middleware"
	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/config"
	"github.com/mind-engage/mindengage-cbt/internal/db"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/events"
	"github.com/mind-engage/mindengage-cbt/internal/grading"
	"github.com/mind-engage/mindengage-cbt/internal/metrics"
	"github.com/mind-engage/mindengage-cbt/internal/practice"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
	"github.com/mind-engage/mindengage-cbt/internal/sessions"
	storage "github.com/mind-engage/mindengage-cbt/internal/storage"
	"github.com/mind-engage/mindengage-cbt/internal/store"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Persistence: SQL for results, redis for snapshots when configured ---
	var st store.Store = store.NewSQLStore(dbh)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis %s: %v", cfg.RedisAddr, err)
		}
		defer rdb.Close()
		st = store.NewRedisStore(rdb, cfg.RedisSnapshotTTL, st)
		logger.Printf("snapshots in redis %s (ttl %s)", cfg.RedisAddr, cfg.RedisSnapshotTTL)
	}

	// --- Events: always the local log, plus the broker when configured ---
	eventLog := events.NewEventRepo(dbh, "local")
	pub := events.Multi{eventLog}
	if cfg.RabbitMQURI != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange, logger)
		if err != nil {
			log.Fatalf("rabbitmq: %v", err)
		}
		defer amqpPub.Close()
		pub = append(pub, amqpPub)
	}

	// --- Documents & questions ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	lib := documents.NewSQLLibrary(dbh)
	bank := questions.NewBank()
	if cfg.QuestionBankPath != "" {
		n, err := bank.LoadDir(cfg.QuestionBankPath)
		if err != nil {
			log.Fatalf("question bank: %v", err)
		}
		logger.Printf("loaded %d bank questions from %s", n, cfg.QuestionBankPath)
	}
	importer := documents.NewImporter(lib, bs, bank, documents.WithLogger(logger))
	if n, err := importer.Reload(ctx); err != nil {
		logger.Printf("reload qti documents: %v", err)
	} else if n > 0 {
		logger.Printf("restored %d questions from stored qti packages", n)
	}
	src := questions.Chain{bank, questions.NewGenerator(lib)}

	// --- Sessions ---
	mgr := sessions.NewManager(src, st,
		sessions.WithLogger(logger),
		sessions.WithPublisher(pub),
	)
	if n, err := mgr.Restore(ctx); err != nil {
		logger.Printf("restore sessions: %v", err)
	} else if n > 0 {
		logger.Printf("restored %d sessions", n)
	}

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.LoginConfig{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			AllowDevUsers: cfg.Mode == config.ModeOffline,
		}))
		r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, cfg.Mode == config.ModeOnline))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		api.Mount(pr, api.Deps{
			Sessions:  mgr,
			Documents: lib,
			Importer:  importer,
			Bank:      bank,
			Source:    src,
			Practice:  practice.NewService(lib, bank, grading.NewDefaultGrader()),
			Blobs:     bs,
			Events:    pub,
			Defaults: cbt.Config{
				QuestionCount:    cfg.DefaultQuestionCount,
				TimeLimitMinutes: cfg.DefaultTimeLimitMinutes,
				Difficulty:       cbt.DifficultyMixed,
			},
		})
		mountAdminRoutes(pr, mgr, eventLog, bank, importer, cfg.QuestionBankPath)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	mgr.Close(shutdownCtx)
}
