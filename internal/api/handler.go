package api

import (
	"log/slog"

	"github.com/shaiso/Syncline/internal/mq"
	"github.com/shaiso/Syncline/internal/scheduler"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	scheduler *scheduler.Scheduler
	publisher *mq.Publisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
// Publisher опционален: без него POST /schedules/{id}/sync отвечает 422.
type Config struct {
	Scheduler *scheduler.Scheduler
	Publisher *mq.Publisher
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		scheduler: cfg.Scheduler,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}
