package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Syncline/internal/api"
	"github.com/shaiso/Syncline/internal/executor"
	"github.com/shaiso/Syncline/internal/kv"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/mq"
	"github.com/shaiso/Syncline/internal/scheduler"
	"github.com/shaiso/Syncline/internal/store"
	"github.com/shaiso/Syncline/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncline_api_http_requests_total",
		Help: "Total HTTP requests handled by syncline_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting syncline-api")

	// Подключаемся к базе данных
	pool, err := kv.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	kvStore := kv.NewPostgres(pool)
	if err := kvStore.Init(context.Background()); err != nil {
		logger.Error("failed to init kv storage", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	scheduleStore := store.NewScheduleStore(kvStore)
	locks := lock.NewManager(kvStore)

	// RabbitMQ для внеочередных синхронизаций; без него
	// POST /schedules/{id}/sync отвечает 422
	var publisher *mq.Publisher
	mqURL := os.Getenv("MQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, on-demand sync disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Справочник subjects нужен только для POST /cleanup
	var directory scheduler.SubjectDirectory
	if subjectURL := os.Getenv("SUBJECT_URL"); subjectURL != "" {
		directory = executor.NewHTTPSubjectDirectory(subjectURL, 0)
	}

	// Сервисный слой без запуска цикла: API управляет расписаниями,
	// тики выполняет syncline-scheduler
	sched := scheduler.New(scheduler.Config{
		Store:     scheduleStore,
		Locks:     locks,
		Directory: directory,
		Logger:    logger,
	})

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Scheduler: sched,
		Publisher: publisher,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
