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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/examhall-api/internal/config"
	"github.com/yourusername/examhall-api/internal/handler"
	"github.com/yourusername/examhall-api/internal/middleware"
	pgRepo "github.com/yourusername/examhall-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/examhall-api/internal/repository/redis"
	"github.com/yourusername/examhall-api/internal/service"
	"github.com/yourusername/examhall-api/pkg/auth"
	"github.com/yourusername/examhall-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	subjectRepo := pgRepo.NewSubjectRepo(db)
	worksheetRepo := pgRepo.NewWorksheetRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	sessionRepo := pgRepo.NewTestSessionRepo(db)
	responseRepo := pgRepo.NewResponseRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	preferenceRepo := pgRepo.NewPreferenceRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWTService. Токены выпускает внешний сервис
	// идентичности, здесь они только проверяются.
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Конфигурация тестового движка из загруженных настроек
	engineConfig := &service.Config{
		CompulsorySubject:      cfg.Testing.CompulsorySubject,
		SessionSubjectCount:    cfg.Testing.SessionSubjectCount,
		PreferenceSubjectCount: cfg.Testing.PreferenceSubjectCount,
		CatalogCacheTTL:        time.Duration(cfg.Testing.CatalogCacheTTLMin) * time.Minute,
		ResultCacheTTL:         time.Duration(cfg.Testing.ResultCacheTTLMin) * time.Minute,
	}

	// Инициализируем сервисы
	catalogService := service.NewCatalogService(subjectRepo, worksheetRepo, questionRepo, cacheRepo, engineConfig)
	preferenceService := service.NewPreferenceService(preferenceRepo, catalogService, engineConfig)
	graderService := service.NewGraderService(sessionRepo, responseRepo, resultRepo, cacheRepo, catalogService, engineConfig)
	sessionService := service.NewSessionService(
		sessionRepo, responseRepo, questionRepo, preferenceRepo,
		cacheRepo, catalogService, graderService, engineConfig, nil,
	)

	// Инициализируем обработчики
	subjectHandler := handler.NewSubjectHandler(catalogService, preferenceService)
	sessionHandler := handler.NewSessionHandler(sessionService, graderService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Каталог предметов (публичный маршрут)
		api.GET("/subjects", subjectHandler.ListSubjects)

		// Предпочтения текущего пользователя
		userGroup := api.Group("/user")
		userGroup.Use(authMiddleware.RequireAuth())
		{
			userGroup.GET("/subjects", subjectHandler.GetPreferences)
			userGroup.POST("/subjects", subjectHandler.SetPreferences)
			userGroup.GET("/performance", sessionHandler.GetPerformance)
		}

		// Сессии тестирования
		sessions := api.Group("/test-sessions")
		sessions.Use(authMiddleware.RequireAuth())
		{
			sessions.POST("/start",
				rateLimiter.Limit(middleware.StartSessionRateLimitConfig()),
				sessionHandler.StartSession)
			sessions.POST("/submit",
				rateLimiter.Limit(middleware.SubmitRateLimitConfig()),
				sessionHandler.SubmitResponses)

			// Группа маршрутов, требующих sessionID
			sessionWithID := sessions.Group("/:id")
			sessionWithID.Use(middleware.ExtractUintParam("id", "sessionID")) // Применяем middleware
			{
				sessionWithID.POST("/finalize", sessionHandler.FinalizeSession)
				sessionWithID.GET("/results", sessionHandler.GetResults)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
