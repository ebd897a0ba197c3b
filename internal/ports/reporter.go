package ports

import (
	"time"

	"github.com/alejandrodnm/weatheredge/internal/domain"
)

// Reporter presenta el avance y el resultado del backfill al operador.
// Es salida informativa para humanos: ningún componente automatizado la consume.
type Reporter interface {
	// RunStarted anuncia el arranque con el total de registros pendientes.
	RunStarted(stats domain.RunStats)

	// Progress refresca la línea de avance tras cada lote commiteado.
	Progress(stats domain.RunStats)

	// Summary imprime el resumen final multi-línea.
	Summary(stats domain.RunStats, elapsed time.Duration)

	// Sample muestra la muestra de verificación de registros ya resueltos.
	Sample(opps []domain.Opportunity)

	// StaleRemaining informa cuántos registros quedan en el modelo viejo
	// (debería ser 0 tras un run completo).
	StaleRemaining(n int64)
}
