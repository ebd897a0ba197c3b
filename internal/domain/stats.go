package domain

// RunStats son los contadores acumulados de una pasada de backfill.
type RunStats struct {
	RunID string
	Total int64 // registros stale al arrancar

	Processed int64 // filas vistas (updated + skipped + errors)
	Updated   int64
	Skipped   int64
	Errors    int64
}

// Percent devuelve el avance sobre el total, en [0,100].
func (s RunStats) Percent() float64 {
	if s.Total <= 0 {
		return 100.0
	}
	return float64(s.Processed) / float64(s.Total) * 100.0
}
