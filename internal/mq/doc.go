// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - sync.requested — внеплановый запрос синхронизации subject (API → демон)
//   - sync.completed — синхронизация прошла успешно
//   - sync.failed    — попытка не удалась, будет retry
//   - sync.disabled  — лимит ретраев исчерпан, расписание выключено
//
// Exchanges:
//   - syncline.syncs  — запросы синхронизации
//   - syncline.events — события жизненного цикла
//   - syncline.dlq    — dead letter queue
package mq
