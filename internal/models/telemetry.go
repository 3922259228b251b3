// Package models содержит структуры данных телеметрии и спектрального анализа
package models

import "time"

// Record представляет одну разобранную строку телеметрии
type Record struct {
	Timestamp float64 `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Spectrum содержит результат спектрального анализа окна.
// Frequencies и Magnitudes всегда одинаковой длины.
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Magnitudes  []float64 `json:"magnitudes"`
}

// Len возвращает количество бинов спектра
func (s Spectrum) Len() int {
	return len(s.Frequencies)
}

// Peak описывает доминирующий бин спектра
type Peak struct {
	Bin       int     `json:"bin"`
	Frequency float64 `json:"frequency_hz"`
	Magnitude float64 `json:"magnitude"`
}

// WindowStats содержит статистику временной области по текущему окну
type WindowStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// Frame представляет одно обновление, передаваемое поверхностям отрисовки
type Frame struct {
	Seq       uint64      `json:"seq"`
	Pushes    uint64      `json:"pushes"`
	CreatedAt time.Time   `json:"created_at"`
	TimeAxis  []float64   `json:"time_axis"`
	Samples   []float64   `json:"samples"`
	Spectrum  Spectrum    `json:"spectrum"`
	Peak      Peak        `json:"peak"`
	Stats     WindowStats `json:"stats"`
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis,omitempty"`
	Uptime    string    `json:"uptime"`
	LastFrame uint64    `json:"last_frame"`
}

// StatsResponse содержит статистику монитора
type StatsResponse struct {
	Frames       uint64      `json:"frames"`
	Pushes       uint64      `json:"pushes"`
	WindowSize   int         `json:"window_size"`
	Bins         int         `json:"bins"`
	Peak         Peak        `json:"peak"`
	Window       WindowStats `json:"window"`
	LastUpdateAt time.Time   `json:"last_update_at"`
}
