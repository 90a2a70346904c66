package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	confirmPaymentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/confirm_payment"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	getAvailableStartsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_starts"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getCalendarHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_calendar"
	getClientAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_client_appointments"
	updateAppointmentStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_appointment_status"
	updateCalendarHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	staffServiceClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/staffservice"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	calendarService "github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/service/scheduling"
	confirmPaymentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/confirm_payment"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	expirePendingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/expire_pending"
	getAvailableStartsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_starts"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from %s", configPath)

	// Метрики (если включены). nil коллектор безопасен для всех потребителей.
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)

	// Репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	calendarRepository := calendarRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Интеграции
	staffClient := staffServiceClient.NewClient(
		cfg.StaffService.URL,
		time.Duration(cfg.StaffService.Timeout)*time.Second,
		log,
	)
	log.Info("StaffService client initialized (url=%s, timeout=%ds)", cfg.StaffService.URL, cfg.StaffService.Timeout)

	var locker createBookingUC.Locker = redislock.NoopLocker{}
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is unavailable at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()

		locker = redislock.New(
			redisClient,
			cfg.Redis.LockPrefix,
			time.Duration(cfg.Redis.LockTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.LockWaitMillis)*time.Millisecond,
		)
		log.Info("Redis locks enabled (addr=%s)", cfg.Redis.Addr)
	} else {
		log.Warn("Redis is not configured, booking relies on database exclusion only")
	}

	var auditPublisher interface {
		Publish(ctx context.Context, event audit.Event)
		Close() error
	} = audit.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		auditPublisher = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log, metricsCollector)
		log.Info("Audit events are published to Kafka (topic=%s)", cfg.Kafka.AuditTopic)
	}

	var payments createBookingUC.PaymentGateway = payment.NoopGateway{}
	if cfg.Stripe.Enabled() {
		payments = payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
			Currency:   cfg.Stripe.Currency,
		})
		log.Info("Stripe checkout enabled (currency=%s)", cfg.Stripe.Currency)
	}

	// Планирование ресурсов
	pools := scheduling.NewPoolLoader(staffClient)
	engine := scheduling.NewEngine(appointmentRepository, scheduling.RandomPolicy{}, log)

	// Сервисы
	appointmentsSvc := appointmentsService.NewService(appointmentRepository, txMgr, auditPublisher, log)
	calendarSvc := calendarService.NewService(calendarRepository, log)

	// Use cases
	getAvailableStartsUseCase := getAvailableStartsUC.NewUseCase(
		catalogRepository,
		calendarRepository,
		appointmentRepository,
		pools,
		metricsCollector,
		getAvailableStartsUC.Settings{
			StepMinutes:     cfg.Booking.SearchStepMinutes,
			DefaultPageSize: cfg.Booking.DefaultPageSize,
			MaxPageSize:     cfg.Booking.MaxPageSize,
		},
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		catalogRepository,
		calendarRepository,
		appointmentRepository,
		pools,
		engine,
		locker,
		txMgr,
		payments,
		auditPublisher,
		metricsCollector,
		createBookingUC.Settings{
			StepMinutes:       cfg.Booking.SearchStepMinutes,
			AlternativesCount: cfg.Booking.AlternativesCount,
		},
		log,
	)

	confirmPaymentUseCase := confirmPaymentUC.NewUseCase(appointmentRepository, txMgr, auditPublisher, log)

	// Очистка неоплаченных записей
	var expireScheduler *expirePendingUC.Scheduler
	if cfg.Booking.PendingTTLMinutes > 0 {
		expirePendingUseCase := expirePendingUC.NewUseCase(
			appointmentRepository,
			txMgr,
			auditPublisher,
			metricsCollector,
			expirePendingUC.Settings{TTL: time.Duration(cfg.Booking.PendingTTLMinutes) * time.Minute},
			log,
		)
		expireScheduler, err = expirePendingUC.NewScheduler(expirePendingUseCase, cfg.Booking.ExpireSchedule, log)
		if err != nil {
			log.Fatal("Failed to create expire scheduler: %v", err)
		}
		expireScheduler.Start()
		log.Info("Pending appointments expire after %d minutes (schedule=%s)",
			cfg.Booking.PendingTTLMinutes, cfg.Booking.ExpireSchedule)
	}

	// Инициализируем handlers
	getAvailableStarts := getAvailableStartsHandler.NewHandler(getAvailableStartsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	confirmPayment := confirmPaymentHandler.NewHandler(confirmPaymentUseCase, confirmPaymentHandler.WebhookSettings{
		Secret:    cfg.Stripe.WebhookSecret,
		Tolerance: time.Duration(cfg.Stripe.WebhookToleranceSeconds) * time.Second,
	}, log)
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("Stripe webhook secret is not set, payment callbacks will be rejected")
	}
	getBooking := getBookingHandler.NewHandler(appointmentsSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(appointmentsSvc, log)
	updateStatus := updateAppointmentStatusHandler.NewHandler(appointmentsSvc, log)
	getClientAppointments := getClientAppointmentsHandler.NewHandler(appointmentsSvc, log)
	getCalendar := getCalendarHandler.NewHandler(calendarSvc, log)
	updateCalendar := updateCalendarHandler.NewHandler(calendarSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Metrics middleware и endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступные времена начала для пакета
	api.HandleFunc("/packages/{packageId}/available-starts", getAvailableStarts.Handle).Methods(http.MethodGet)

	// Календарь работы
	api.HandleFunc("/calendar", getCalendar.Handle).Methods(http.MethodGet)

	// Уведомление платежного провайдера (аутентификация по подписи Stripe-Signature)
	api.HandleFunc("/payments/callback", confirmPayment.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	var createHandler http.Handler = http.HandlerFunc(createBooking.Handle)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
		createHandler = limiter.Middleware(createHandler)
		log.Info("Booking rate limit enabled (rps=%.1f, burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	protected.Handle("/appointments", createHandler).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{appointmentId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/clients/{clientId}/appointments", getClientAppointments.Handle).Methods(http.MethodGet)

	// --- Персонал ---
	protected.HandleFunc("/appointments/{appointmentId}/status", updateStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/calendar", updateCalendar.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if expireScheduler != nil {
		expireScheduler.Stop(shutdownCtx)
	}

	if err := auditPublisher.Close(); err != nil {
		log.Error("Failed to flush audit events: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
