// Package executor выполняет один цикл синхронизации для одного subject.
//
// Структура:
//   - executor.go — Executor (блокировка, credential, удалённый вызов,
//     применение retry-политики, запись в store)
//   - http.go     — production-адаптеры внешних границ (syncer, credentials,
//     справочник subjects)
//   - metrics.go  — счётчики Prometheus
//
// Executor не пробрасывает ошибки subject наружу: любой исход попытки
// записывается в состояние расписания. Единственный механизм защиты от
// параллельной синхронизации одного subject — per-subject лизинговая
// блокировка, в том числе между процессами.
package executor
