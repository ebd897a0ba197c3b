package ports

import (
	"context"

	"github.com/alejandrodnm/weatheredge/internal/domain"
)

// OpportunityStore es el acceso a la tabla opportunities que consume el
// backfill: contar pendientes, paginar por cursor y actualizar por lotes
// dentro de una transacción.
type OpportunityStore interface {
	// CountStale devuelve cuántos registros siguen marcados con el modelo viejo.
	CountStale(ctx context.Context) (int64, error)

	// FetchStaleAfter devuelve hasta limit registros stale con id > cursor,
	// ordenados por id ascendente. Slice vacío = no queda nada.
	FetchStaleAfter(ctx context.Context, cursor int64, limit int) ([]domain.Opportunity, error)

	// BeginBatch abre una transacción sobre una conexión exclusiva del pool.
	// El caller debe terminar con Commit o Rollback.
	BeginBatch(ctx context.Context) (BatchTx, error)

	// SampleResolved devuelve registros ya recalculados y con resultado
	// conocido, para la verificación visual del final del run.
	SampleResolved(ctx context.Context, limit int) ([]domain.Opportunity, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// BatchTx es la transacción de un lote. Un error de UpdatePricing invalida
// solo esa fila: las demás filas del lote deben poder seguir y commitear.
type BatchTx interface {
	// UpdatePricing sobreescribe los campos derivados de la fila id y la marca
	// model_valid.
	UpdatePricing(ctx context.Context, id int64, p domain.Pricing) error

	Commit() error
	Rollback() error
}
