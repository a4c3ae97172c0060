// Syncline Scheduler — процесс периодической синхронизации.
//
// Scheduler:
//   - Захватывает leader lock (одновременно работает один экземпляр)
//   - Каждый тик выбирает due-расписания и запускает синхронизации
//   - Слушает очередь syncs.requested для внеочередных синхронизаций
//   - По cron-расписанию чистит расписания исчезнувших subjects
//
// Резервные экземпляры ждут освобождения leader lock и подхватывают работу.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Syncline/internal/executor"
	"github.com/shaiso/Syncline/internal/kv"
	"github.com/shaiso/Syncline/internal/lock"
	"github.com/shaiso/Syncline/internal/mq"
	"github.com/shaiso/Syncline/internal/scheduler"
	"github.com/shaiso/Syncline/internal/store"
	"github.com/shaiso/Syncline/internal/telemetry"
)

const defaultTickInterval = 60 * time.Second

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting syncline-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := kv.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	kvStore := kv.NewPostgres(pool)
	if err := kvStore.Init(ctx); err != nil {
		logger.Error("failed to init kv storage", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	scheduleStore := store.NewScheduleStore(kvStore)
	locks := lock.NewManager(kvStore)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("MQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, sync events disabled", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Коллабораторы синхронизации
	syncURL := os.Getenv("SYNC_URL")
	if syncURL == "" {
		syncURL = "http://localhost:9000/sync"
	}
	credentialURL := os.Getenv("CREDENTIAL_URL")
	if credentialURL == "" {
		credentialURL = "http://localhost:9001/credentials"
	}

	exec := executor.New(executor.Config{
		Store:       scheduleStore,
		Locks:       locks,
		Credentials: executor.NewHTTPCredentialProvider(credentialURL, 0),
		Syncer:      executor.NewHTTPSyncer(syncURL, 0),
		Publisher:   publisher,
		Logger:      logger,
	})

	// Справочник subjects нужен только для cleanup
	var directory scheduler.SubjectDirectory
	if subjectURL := os.Getenv("SUBJECT_URL"); subjectURL != "" {
		directory = executor.NewHTTPSubjectDirectory(subjectURL, 0)
	}

	workers := 1
	if v := os.Getenv("SCHED_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	sched := scheduler.New(scheduler.Config{
		Store:     scheduleStore,
		Locks:     locks,
		Executor:  exec,
		Directory: directory,
		Logger:    logger,
		Workers:   workers,
	})

	tickInterval := defaultTickInterval
	if v := os.Getenv("TICK_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tickInterval = time.Duration(n) * time.Second
		}
	}

	// Запускаем цикл. Если лидер уже есть — ждём освобождения lease
	// и пробуем снова (standby-режим).
	go func() {
		for {
			err := sched.Start(ctx, tickInterval)
			if err == nil {
				logger.Info("scheduler started", "tick_interval", tickInterval, "workers", workers)
				return
			}
			if !errors.Is(err, scheduler.ErrLeaderHeld) {
				logger.Error("failed to start scheduler", "error", err)
				cancel()
				return
			}

			logger.Info("leader lock held by another instance, standing by")
			select {
			case <-ctx.Done():
				return
			case <-time.After(tickInterval):
			}
		}
	}()

	// Внеочередные синхронизации из очереди
	var consumer *mq.Consumer
	if mqConn != nil {
		consumer = mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueSyncsRequested),
			Prefetch: workers,
			Handler: func(ctx context.Context, msg *mq.Message) error {
				payload, err := mq.ParsePayload[mq.SyncRequestedPayload](msg)
				if err != nil {
					return err
				}

				record, err := scheduleStore.Get(ctx, payload.SubjectID)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						logger.Warn("sync requested for unknown subject", "subject_id", payload.SubjectID)
						return nil
					}
					return err
				}

				_, err = exec.Execute(ctx, record)
				return err
			},
		})

		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "error", err)
			}
		}()
	}

	// Периодическая чистка по cron-расписанию; без справочника
	// subjects чистить нечем
	if directory != nil {
		cronExpr := os.Getenv("CLEANUP_CRON")
		if cronExpr == "" {
			cronExpr = "0 * * * *"
		}
		if err := scheduler.ValidateCronExpr(cronExpr); err != nil {
			logger.Error("invalid CLEANUP_CRON", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := sched.RunCleanupLoop(ctx, cronExpr); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("cleanup loop stopped", "error", err)
			}
		}()
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if mqConn != nil && !mqConn.IsConnected() {
			w.Write([]byte("ok (mq reconnecting)"))
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	server := &http.Server{Addr: port, Handler: mux}
	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()
	if consumer != nil {
		consumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("syncline-scheduler stopped")
}
