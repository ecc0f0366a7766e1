package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VerseClash/config"
	"VerseClash/core/audio"
	"VerseClash/core/auth"
	"VerseClash/core/gen"
	"VerseClash/db"
	"VerseClash/logger"
	"VerseClash/repository"
	"VerseClash/storage"

	"github.com/gorilla/mux"
)

// Start initializes all collaborators and runs the HTTP server until a
// termination signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: "logs/verseclash.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	battleRepo := repository.NewGormBattleRepository(db.GormDB)
	userRepo := repository.NewMySQLUserRepository(db.DB)

	scratch := audio.NewScratchStore(cfg.ScratchDir)
	acquirer := audio.NewAcquirer(scratch, cfg.BaseURL, cfg.FetchTimeout)
	mixer := audio.NewFFmpegMixer(cfg.FFmpegPath, cfg.AudioBitrate, cfg.MixTimeout, scratch)
	publisher := storage.NewMinioPublisher(storage.GetMinioClient(), cfg.MinioBucket, cfg.MinioPublicBase, cfg.MinioURLExpiry)
	pipeline := audio.NewPipeline(acquirer, mixer, publisher).WithProber(mixer)

	var generator *gen.Client
	if cfg.GeminiAPIKey != "" {
		var err error
		generator, err = gen.New(cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiTTSModel)
		if err != nil {
			logger.Fatal("Failed to create generation client", logger.ErrorField(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, /api/generate is disabled")
	}

	apiHandler := NewAPIHandler(battleRepo, userRepo, pipeline, generator, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Battles
	router.HandleFunc("/api/battles", apiHandler.AuthMiddleware(apiHandler.CreateBattleHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/battles/{id}", apiHandler.GetBattleHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/battles/{id}/status", apiHandler.BattleStatusHandler).Methods(http.MethodGet)

	// Generation and mixing
	router.HandleFunc("/api/generate", apiHandler.AuthMiddleware(apiHandler.GenerateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/mix", apiHandler.MixAudioHandler).Methods(http.MethodPost)

	srv.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
