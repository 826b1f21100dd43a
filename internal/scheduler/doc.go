// Package scheduler запускает pipeline по cron-расписанию.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Trigger, Start)
//   - cron.go      — разбор cron-выражений и вычисление следующего запуска
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Runner:   pipeline,
//	    Store:    scheduleRepo, // опционально
//	    Locker:   locker,       // опционально
//	    CronExpr: "0 6 * * *",
//	    Location: loc,
//	    Logger:   logger,
//	})
//
//	go sched.Start(ctx)
//
// Leader election:
//
// Если задан Locker, перед каждым run берётся pg_try_advisory_lock.
// Два daemon не запустят pipeline одновременно: engine именуется по
// дате, и параллельные runs работали бы с одним и тем же engine.
package scheduler
