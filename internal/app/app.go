package app

import (
	"ai_tutor_backend/internal/config"
	"ai_tutor_backend/internal/controller"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/internal/scheduler"
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/pkg/database"
	"ai_tutor_backend/pkg/logger"
	"ai_tutor_backend/pkg/mailer"
	"ai_tutor_backend/pkg/monitoring"
	"ai_tutor_backend/pkg/security"
	"ai_tutor_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Scheduler *scheduler.Scheduler

	services *services
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	user         *repository.UserRepository
	task         *repository.TaskRepository
	plan         *repository.LearningPlanRepository
	notification *repository.NotificationRepository
	activity     *repository.ActivityRepository
	preference   *repository.PreferenceRepository
}

type services struct {
	activity     *service.ActivityService
	reminder     *service.ReminderService
	dispatch     *service.DispatchService
	notification *service.NotificationService
	task         *service.TaskService
	plan         *service.LearningPlanService
	auth         *service.AuthService
	preference   *service.PreferenceService
}

type controllers struct {
	auth         *controller.AuthController
	task         *controller.TaskController
	plan         *controller.LearningPlanController
	notification *controller.NotificationController
	preference   *controller.PreferenceController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		task:         repository.NewTaskRepository(db),
		plan:         repository.NewLearningPlanRepository(db),
		notification: repository.NewNotificationRepository(db),
		activity:     repository.NewActivityRepository(db),
		preference:   repository.NewPreferenceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.activity = service.NewActivityService(repos.activity)
	s.reminder = service.NewReminderService(
		repos.notification,
		repos.preference,
		repos.task,
		repos.activity,
		s.activity,
		cfg.Reminder,
	)
	s.dispatch = service.NewDispatchService(repos.notification, repos.user, mailer.NewMailer(cfg.SMTP))
	s.notification = service.NewNotificationService(repos.notification, rdb)
	s.task = service.NewTaskService(repos.task, repos.plan, s.reminder, s.activity)
	s.plan = service.NewLearningPlanService(repos.plan)
	s.auth = service.NewAuthService(repos.user, s.activity, cfg)
	s.preference = service.NewPreferenceService(repos.preference)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		task:         controller.NewTaskController(s.task),
		plan:         controller.NewLearningPlanController(s.plan),
		notification: controller.NewNotificationController(s.notification, s.dispatch),
		preference:   controller.NewPreferenceController(s.preference),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig 热更新可变配置，目前仅提醒引擎参数。
// 端口、数据库等连接类配置仍需重启生效
func (a *App) ApplyConfig(newCfg *config.Config) {
	if newCfg == nil {
		return
	}

	a.services.reminder.UpdateConfig(newCfg.Reminder)
	if err := a.Scheduler.UpdateConfig(newCfg.Reminder); err != nil {
		logger.Log.Error("Failed to apply scheduler config", zap.Error(err))
		return
	}

	logger.Log.Info("Reminder config applied",
		zap.Int("hoursBeforeDue", newCfg.Reminder.HoursBeforeDue),
		zap.Int("dispatchIntervalSeconds", newCfg.Reminder.DispatchIntervalSeconds))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不自动迁移，需通过 -migrate 显式开启
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	app.Scheduler = scheduler.NewScheduler(services.dispatch, services.reminder, repos.plan, repos.activity, cfg.Reminder)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("ai-tutor", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	if err := a.Scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先停调度器，等进行中的投递批次跑完
	a.Scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
