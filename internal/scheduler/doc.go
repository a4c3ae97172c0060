// Package scheduler реализует лидерский тиковый цикл и публичные операции
// над расписаниями синхронизации.
//
// Структура:
//   - scheduler.go — жизненный цикл (Start/Stop), лидерство, Tick, диспетчеризация
//   - service.go   — операции CRUD: ScheduleSync, UpdateSchedule, BulkUpdate и др.
//   - stats.go     — сводка по снимку расписаний
//   - cleanup.go   — удаление расписаний несуществующих subjects
//   - cron.go      — cron-расписание для out-of-band cleanup
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Store:    scheduleStore,
//	    Locks:    locks,
//	    Executor: exec,
//	    Logger:   logger,
//	})
//
//	if err := sched.Start(ctx, 30*time.Second); err != nil {
//	    // лидерская блокировка занята — другой процесс уже работает
//	}
//	defer sched.Stop()
//
// Leader Election:
//
// В флоте одинаковых процессов тиковый цикл ведёт только держатель
// лидерской блокировки (лизинговый ключ в KV-хранилище). Упавший лидер
// перестаёт продлевать лизинг, и роль забирает другой процесс.
package scheduler
