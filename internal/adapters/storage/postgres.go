package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS opportunities (
    id                    BIGSERIAL PRIMARY KEY,
    city                  TEXT    NOT NULL,
    platform              TEXT    NOT NULL,
    side                  TEXT    NOT NULL,
    range_type            TEXT,
    forecast_temp         DOUBLE PRECISION,
    ensemble_std_dev      DOUBLE PRECISION,
    range_min             DOUBLE PRECISION,
    range_max             DOUBLE PRECISION,
    range_unit            TEXT    NOT NULL DEFAULT 'F',
    ask                   DOUBLE PRECISION,
    bid                   DOUBLE PRECISION,
    spread                DOUBLE PRECISION,
    hours_to_resolution   DOUBLE PRECISION,
    range_width           DOUBLE PRECISION,
    our_probability       DOUBLE PRECISION,
    corrected_probability DOUBLE PRECISION,
    correction_ratio      DOUBLE PRECISION,
    edge_pct              DOUBLE PRECISION,
    expected_value        DOUBLE PRECISION,
    kelly_fraction        DOUBLE PRECISION,
    would_pass_5          BOOLEAN NOT NULL DEFAULT FALSE,
    would_pass_8          BOOLEAN NOT NULL DEFAULT FALSE,
    would_pass_10         BOOLEAN NOT NULL DEFAULT FALSE,
    would_pass_15         BOOLEAN NOT NULL DEFAULT FALSE,
    model_valid           BOOLEAN,
    would_have_won        BOOLEAN,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_opp_stale   ON opportunities(model_valid, id);
CREATE INDEX IF NOT EXISTS idx_opp_created ON opportunities(created_at DESC);
`

// pingTimeout acota el retry inicial: si la DB no responde en este margen, el
// run aborta como fatal en vez de quedarse colgado.
const pingTimeout = 30 * time.Second

// NewPostgres conecta al store de producción. El ping inicial se reintenta con
// backoff exponencial acotado; los cortes de red una vez arrancado el run son
// fatales y no se reintentan (la migración es resumible entre lotes).
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgres: open: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = pingTimeout
	err = backoff.RetryNotify(db.Ping, bo, func(err error, next time.Duration) {
		slog.Warn("postgres not ready, retrying", "err", err, "next_in", next)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgres: ping: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgres: apply schema: %w", err)
	}

	return &Store{db: db, dollar: true}, nil
}
