package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/weatheredge/internal/domain"
	"github.com/alejandrodnm/weatheredge/internal/ports"
	"github.com/google/uuid"
)

// Config controla una pasada de migración.
type Config struct {
	BatchSize     int
	DryRun        bool // calcular y contar sin emitir updates
	MaxBatches    int  // 0 = sin límite; >0 para smoke-tests de migración
	ErrorLogLimit int  // errores por-fila logueados antes de solo contar
	SampleSize    int  // tamaño de la muestra de verificación final
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		ErrorLogLimit: 5,
		SampleSize:    10,
	}
}

// Runner es el orquestador del backfill: pagina la tabla por cursor, recalcula
// cada registro stale dentro de una transacción por lote y acumula contadores.
//
// Los lotes son estrictamente secuenciales. El cursor solo persiste
// implícitamente vía model_valid: matar el proceso entre lotes no pierde nada
// commiteado y relanzar re-escanea solo lo que sigue stale.
type Runner struct {
	cfg      Config
	store    ports.OpportunityStore
	pricer   *domain.Pricer
	reporter ports.Reporter

	errorsLogged int
}

// New crea un Runner con todas las dependencias inyectadas.
func New(cfg Config, store ports.OpportunityStore, pricer *domain.Pricer, reporter ports.Reporter) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Runner{cfg: cfg, store: store, pricer: pricer, reporter: reporter}
}

// Run ejecuta la migración completa. Devuelve las estadísticas acumuladas y un
// error solo ante fallos fatales (conectividad, control de transacción); los
// fallos por-fila quedan en Stats.Errors.
func (r *Runner) Run(ctx context.Context) (domain.RunStats, error) {
	start := time.Now()
	stats := domain.RunStats{RunID: uuid.New().String()}

	total, err := r.store.CountStale(ctx)
	if err != nil {
		return stats, fmt.Errorf("backfill: count stale: %w", err)
	}
	stats.Total = total

	slog.Info("backfill starting",
		"run_id", stats.RunID,
		"stale", total,
		"batch_size", r.cfg.BatchSize,
		"dry_run", r.cfg.DryRun,
	)
	r.reporter.RunStarted(stats)

	// El cursor arranca en el mínimo del tipo id (autoincrement desde 1).
	var cursor int64
	batches := 0

	for {
		// La interrupción limpia ocurre solo entre lotes: lo commiteado queda,
		// el resto sigue stale y otro run lo retoma.
		if ctx.Err() != nil {
			slog.Warn("backfill interrupted between batches, run is resumable", "run_id", stats.RunID)
			break
		}

		batch, err := r.store.FetchStaleAfter(ctx, cursor, r.cfg.BatchSize)
		if err != nil {
			return stats, fmt.Errorf("backfill: fetch batch after id %d: %w", cursor, err)
		}
		if len(batch) == 0 {
			break
		}

		cursor, err = r.processBatch(ctx, batch, &stats)
		if err != nil {
			return stats, err
		}

		r.reporter.Progress(stats)

		batches++
		if r.cfg.MaxBatches > 0 && batches >= r.cfg.MaxBatches {
			slog.Info("batch limit reached, stopping", "batches", batches)
			break
		}
	}

	r.reporter.Summary(stats, time.Since(start))
	r.verify(ctx)

	slog.Info("backfill finished",
		"run_id", stats.RunID,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"elapsed", time.Since(start).Round(time.Second),
	)
	return stats, nil
}

// processBatch recalcula un lote dentro de una transacción y devuelve el
// cursor avanzado. Un fallo por-fila se cuenta y no aborta el lote; un fallo
// del control de la transacción hace rollback y es fatal.
func (r *Runner) processBatch(ctx context.Context, batch []domain.Opportunity, stats *domain.RunStats) (int64, error) {
	var cursor int64

	if r.cfg.DryRun {
		for _, opp := range batch {
			cursor = opp.ID
			r.classify(ctx, opp, stats, nil)
		}
		return cursor, nil
	}

	tx, err := r.store.BeginBatch(ctx)
	if err != nil {
		return cursor, fmt.Errorf("backfill: begin batch: %w", err)
	}

	for _, opp := range batch {
		// El cursor avanza incondicionalmente: una fila saltada o fallida
		// nunca bloquea el progreso.
		cursor = opp.ID
		r.classify(ctx, opp, stats, tx)
	}

	if err := tx.Commit(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("rollback after failed commit also failed", "err", rbErr)
		}
		return cursor, fmt.Errorf("backfill: commit batch ending at id %d: %w", cursor, err)
	}
	return cursor, nil
}

// classify procesa una fila y actualiza los contadores. Con tx nil (dry-run)
// solo clasifica, sin escribir.
func (r *Runner) classify(ctx context.Context, opp domain.Opportunity, stats *domain.RunStats, tx ports.BatchTx) {
	stats.Processed++

	pricing, err := r.pricer.Price(opp)
	switch {
	case errors.Is(err, domain.ErrNotPriceable):
		stats.Skipped++
		return
	case err != nil:
		stats.Errors++
		r.logRecordError(opp.ID, err)
		return
	}

	if tx == nil {
		stats.Updated++
		return
	}

	if err := tx.UpdatePricing(ctx, opp.ID, pricing); err != nil {
		stats.Errors++
		r.logRecordError(opp.ID, err)
		return
	}
	stats.Updated++
}

// logRecordError loguea los primeros fallos por-fila y después solo cuenta,
// para no inundar el log en una tabla con millones de filas problemáticas.
func (r *Runner) logRecordError(id int64, err error) {
	if r.errorsLogged >= r.cfg.ErrorLogLimit {
		return
	}
	r.errorsLogged++
	if r.errorsLogged == r.cfg.ErrorLogLimit {
		slog.Warn("record failed (further record errors will be counted silently)", "id", id, "err", err)
		return
	}
	slog.Warn("record failed", "id", id, "err", err)
}

// verify cierra el run con la muestra de verificación y el recuento de
// registros aún stale. Ambos son informativos: un fallo aquí no invalida el
// trabajo ya commiteado.
func (r *Runner) verify(ctx context.Context) {
	sample, err := r.store.SampleResolved(ctx, r.cfg.SampleSize)
	if err != nil {
		slog.Warn("verification sample failed", "err", err)
	} else {
		r.reporter.Sample(sample)
	}

	remaining, err := r.store.CountStale(ctx)
	if err != nil {
		slog.Warn("stale recount failed", "err", err)
		return
	}
	r.reporter.StaleRemaining(remaining)
}
