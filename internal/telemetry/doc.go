// Package telemetry предоставляет настройку структурированного логирования.
//
// Логирование построено на log/slog:
//   - уровень задаётся переменной LOG_LEVEL (DEBUG/INFO/WARN/ERROR)
//   - формат задаётся переменной LOG_FORMAT (json/text)
//   - хелперы With* добавляют доменные атрибуты (subject_id, component)
package telemetry
