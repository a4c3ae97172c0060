// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (scheduler, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - schedule_handler.go — обработчики для /schedules, /stats и /cleanup
//
// API предоставляет REST endpoints для управления расписаниями
// синхронизаций, сводной статистикой и очисткой осиротевших записей.
package api
