package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	httpHandler "github.com/Saschakew/ShoppingLists/internal/handler/http"
	wsHandler "github.com/Saschakew/ShoppingLists/internal/handler/websocket"
	"github.com/Saschakew/ShoppingLists/internal/hub"
	gormpersistence "github.com/Saschakew/ShoppingLists/internal/infra/persistence/gorm"
	redisrelay "github.com/Saschakew/ShoppingLists/internal/infra/relay/redis"
	"github.com/Saschakew/ShoppingLists/internal/infra/setup"
	"github.com/Saschakew/ShoppingLists/internal/middleware"
	"github.com/Saschakew/ShoppingLists/internal/service"
	"github.com/Saschakew/ShoppingLists/internal/tasks"
	"github.com/Saschakew/ShoppingLists/internal/worker"
)

// App holds every long-lived component of the server.
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Scheduler      *asynq.Scheduler
	Hub            *hub.Hub
	Relay          *redisrelay.Relay // nil when RELAY_ENABLED=false
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
	cancelRelay    context.CancelFunc
}

// NewLogger creates the application logger for cfg.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}))
	}
	return log
}

// NewApp loads the configuration and wires all components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := NewLogger(cfg)
	// packages log through the standard logger
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())
	logrus.SetOutput(log.Out)
	log.Infof("Logger initialized (Level: %s)", log.GetLevel().String())

	log.WithField("db_driver", cfg.DBDriver).Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Redis and asynq clients initialized")

	userRepo := gormpersistence.NewGormUserRepository(db)
	listRepo := gormpersistence.NewGormListRepository(db)
	itemRepo := gormpersistence.NewGormItemRepository(db)
	shareRepo := gormpersistence.NewGormShareRepository(db)

	hubInstance := hub.NewHub(cfg.BroadcastTimeout)
	var publisher service.EventPublisher = hubInstance
	var rooms service.RoomEvictor = hubInstance
	var relay *redisrelay.Relay
	if cfg.RelayEnabled {
		relay = redisrelay.NewRelay(redisClient, hubInstance, cfg.KeyPrefix, cfg.BroadcastTimeout)
		publisher = relay
		rooms = relay
	}
	log.WithFields(logrus.Fields{
		"delivery_timeout": cfg.BroadcastTimeout.String(),
		"relay_enabled":    cfg.RelayEnabled,
	}).Info("Hub initialized")

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	guard := service.NewAccessGuard(listRepo, shareRepo)
	activity := tasks.NewActivityRecorder(asynqClient)
	listService := service.NewListService(listRepo, itemRepo, shareRepo, userRepo, guard, publisher, rooms, activity, service.SystemClock)
	syncService := service.NewSyncService(itemRepo, userRepo, guard, service.SystemClock)

	workerServer := worker.NewWorkerServer(redisClientOpt, listRepo, hubInstance, log)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := SetupRouter(RouterDeps{
		Log:           log,
		AuthHandler:   httpHandler.NewAuthHandler(authService),
		ListHandler:   httpHandler.NewListHandler(listService, syncService),
		WSHandler:     wsHandler.NewWebSocketHandler(hubInstance, guard, cfg.CORSAllowedOrigin),
		JWTSecret:     cfg.JWTSecret,
		AllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:   middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Application assembled successfully")
	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		Relay:          relay,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// Start launches the background routines and the HTTP server.
func (a *App) Start() {
	if a.Relay != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancelRelay = cancel
		go func() {
			if err := a.Relay.Run(ctx); err != nil {
				a.Log.WithError(err).Error("Event relay stopped, events stay local to this instance")
			}
		}()
	}

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{Location: time.UTC})

	payload, err := tasks.NewRoomStatsTask()
	if err != nil {
		a.Log.Errorf("Failed to create room stats task payload: %v", err)
		return
	}
	task := asynq.NewTask(tasks.TypeRoomStats, payload)

	schedule := "@every 5m"
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register periodic room stats task: %v", err)
		return
	}
	a.Log.Infof("Periodic room stats task registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	if err := scheduler.Start(); err != nil {
		a.Log.Errorf("Asynq scheduler failed to start: %v", err)
		return
	}
	a.Scheduler = scheduler
	a.Log.Info("Asynq scheduler started")
}

// Shutdown stops the application gracefully.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.cancelRelay != nil {
		a.cancelRelay()
	}
	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}
