package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout — формат даты в именах engine и отчётов.
const DayLayout = "2006-01-02"

// EngineSize — размер engine.
type EngineSize string

const (
	EngineSizeXS EngineSize = "XS"
	EngineSizeS  EngineSize = "S"
	EngineSizeM  EngineSize = "M"
	EngineSizeL  EngineSize = "L"
	EngineSizeXL EngineSize = "XL"
)

// ParseEngineSize парсит размер без учёта регистра.
func ParseEngineSize(s string) (EngineSize, error) {
	switch size := EngineSize(strings.ToUpper(strings.TrimSpace(s))); size {
	case EngineSizeXS, EngineSizeS, EngineSizeM, EngineSizeL, EngineSizeXL:
		return size, nil
	default:
		return "", fmt.Errorf("unknown engine size %q", s)
	}
}

// Suffix возвращает суффикс размера для имени engine ("s" для S).
func (s EngineSize) Suffix() string {
	return strings.ToLower(string(s))
}

// Engine — compute engine в сервисе.
type Engine struct {
	Name      string      `json:"name"`
	Size      EngineSize  `json:"size"`
	State     EngineState `json:"state"`
	Region    string      `json:"region,omitempty"`
	CreatedBy string      `json:"created_by,omitempty"`
	CreatedOn string      `json:"created_on,omitempty"`
}

// IsProvisioned возвращает true, если engine готов выполнять запросы.
func (e *Engine) IsProvisioned() bool {
	return e.State == EngineStateProvisioned
}

// IsDeleted возвращает true, если engine уже удалён.
func (e *Engine) IsDeleted() bool {
	return e.State == EngineStateDeleted
}

// EngineName формирует имя engine для дня: "<prefix>-<YYYY-MM-DD>-<size>".
//
// Имя зависит только от аргументов, поэтому engines разных дней не пересекаются.
func EngineName(prefix string, day time.Time, size EngineSize) string {
	return fmt.Sprintf("%s-%s-%s", prefix, day.Format(DayLayout), size.Suffix())
}

// Dates — "сегодня" и "вчера" для одного запуска.
//
// Вычисляется один раз на входе в программу, дальше передаётся явно.
type Dates struct {
	Today     time.Time
	Yesterday time.Time
}

// NewDates вычисляет Dates для момента now в часовом поясе loc.
func NewDates(now time.Time, loc *time.Location) Dates {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Dates{
		Today:     today,
		Yesterday: today.AddDate(0, 0, -1),
	}
}

// TodayString возвращает сегодняшнюю дату в формате YYYY-MM-DD.
func (d Dates) TodayString() string {
	return d.Today.Format(DayLayout)
}
