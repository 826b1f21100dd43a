package api

import "net/http"

// GetSchedule возвращает расписание и ближайший запуск.
// GET /api/v1/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	resp := ScheduleResponse{
		CronExpr: h.cronExpr,
		Timezone: h.timezone,
	}
	if h.schedule != nil {
		resp.NextDueAt = h.schedule.NextDueAt()
	}
	Success(w, resp)
}
