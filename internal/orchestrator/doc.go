// Package orchestrator выполняет один run ежедневного обновления.
//
// Pipeline проходит шаги строго по порядку:
//
//	ensure_engine → delete_previous_engine → fetch_data → await_engine →
//	reset_database → ensure_database → load_data → probe_data →
//	install_schema → generate_report
//
// Шаги делятся на нефатальные (ошибка копится в Run.Warnings, run
// продолжается) и фатальные (run завершается FAILED, дальше ничего
// не выполняется). Какие шаги фатальны, задаёт steps.go.
//
// Если настроены Recorder и Notifier, run сохраняется в ledger после
// каждого шага, а по завершении публикуется run.completed.
package orchestrator
