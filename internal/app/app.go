package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/controller"
	"study_plan_backend/internal/middleware"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/service"
	"study_plan_backend/internal/util"
	"study_plan_backend/pkg/configwatcher"
	"study_plan_backend/pkg/database"
	"study_plan_backend/pkg/logger"
	"study_plan_backend/pkg/monitoring"
	"study_plan_backend/pkg/security"
	"study_plan_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	Store           repository.KVStore
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []configwatcher.ConfigReloader
	shutdownTracer  func(context.Context) error
}

type services struct {
	ai       *service.AIService
	plan     *service.StudyPlanService
	progress *service.ProgressService
	advisory *service.AdvisoryService
}

type controllers struct {
	plan     *controller.StudyPlanController
	progress *controller.ProgressController
	advisory *controller.AdvisoryController
	health   *controller.HealthController
}

// RegisterConfigCallback 配置文件变更后调用
func (a *App) RegisterConfigCallback(callback configwatcher.ConfigReloader) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// initStore 按 storage.type 选择持久化后端
func (a *App) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Type {
	case util.StorageMySQL:
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		a.DB = db
		a.Store = repository.NewGormKVStore(db)
	case util.StorageMemory:
		logger.Log.Warn("Using in-memory storage, data is lost on restart")
		a.Store = repository.NewMemoryKVStore()
	default:
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("initialize redis: %w", err)
		}
		a.Redis = rdb
		a.Store = repository.NewRedisKVStore(rdb)
	}
	logger.Log.Info("Storage initialized", zap.String("type", cfg.Storage.Type))
	return nil
}

func (a *App) initServices(cfg *config.Config) *services {
	repo := repository.NewStudyPlanRepository(a.Store, cfg.Storage.KeyPrefix)
	validator := service.NewRequestValidator()
	locks := service.NewUserLocks()

	ai := service.NewAIService(cfg.AI)
	generator := service.NewPlanGenerator(ai, cfg.Planner)
	plan := service.NewStudyPlanService(repo, generator, validator, locks, cfg.Planner)

	var points service.PointsAwarder = service.NewRulePointsAwarder(cfg.Points)
	if cfg.Points.Ledger {
		if a.DB != nil {
			points = service.NewLedgerPointsAwarder(service.NewRulePointsAwarder(cfg.Points), repository.NewPointAwardRepository(a.DB))
		} else {
			logger.Log.Warn("Points ledger requires mysql storage, awarding without ledger")
		}
	}

	progress := service.NewProgressService(repo, plan, points, validator, locks)
	return &services{
		ai:       ai,
		plan:     plan,
		progress: progress,
		advisory: service.NewAdvisoryService(plan, progress),
	}
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		plan:     controller.NewStudyPlanController(s.plan),
		progress: controller.NewProgressController(s.progress, cfg.Planner.PageLimit),
		advisory: controller.NewAdvisoryController(s.advisory),
		health:   controller.NewHealthController(a.Store, cfg.Storage.Type),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.RequestLogger())
}

// NewApp 组装存储、服务与路由；ctx 结束时后台任务随之退出
func NewApp(ctx context.Context, cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg, ConfigDir: configDir}
	if err := app.initStore(ctx, cfg); err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing, continuing without it", zap.Error(err))
		} else {
			app.shutdownTracer = shutdown
		}
	}

	services := app.initServices(cfg)
	app.services = services
	controllers := app.initControllers(services, cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(ctx, router, cfg)
	app.registerRoutes(router, controllers, cfg)

	// AI 参数支持热更新
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.ai.UpdateConfig(newCfg.AI)
		logger.Log.Info("AI settings reloaded", zap.String("model", newCfg.AI.Model))
	})

	return app, nil
}

// Run 启动 HTTP 服务与配置监听，ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := configwatcher.WatchConfig(gctx, a.ConfigDir, a.configCallbacks...); err != nil {
			// 配置监听失败不影响服务
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	logger.Log.Info("Server exiting")
	return err
}

// Close 释放存储连接并刷新追踪数据
func (a *App) Close() {
	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracer(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
