package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS opportunities (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    city                  TEXT    NOT NULL,
    platform              TEXT    NOT NULL,
    side                  TEXT    NOT NULL,
    range_type            TEXT,
    forecast_temp         REAL,
    ensemble_std_dev      REAL,
    range_min             REAL,
    range_max             REAL,
    range_unit            TEXT    NOT NULL DEFAULT 'F',
    ask                   REAL,
    bid                   REAL,
    spread                REAL,
    hours_to_resolution   REAL,
    range_width           REAL,
    our_probability       REAL,
    corrected_probability REAL,
    correction_ratio      REAL,
    edge_pct              REAL,
    expected_value        REAL,
    kelly_fraction        REAL,
    would_pass_5          BOOLEAN NOT NULL DEFAULT 0,
    would_pass_8          BOOLEAN NOT NULL DEFAULT 0,
    would_pass_10         BOOLEAN NOT NULL DEFAULT 0,
    would_pass_15         BOOLEAN NOT NULL DEFAULT 0,
    model_valid           BOOLEAN,
    would_have_won        BOOLEAN,
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- El backfill pagina por (model_valid, id): el índice cubre el predicado stale.
CREATE INDEX IF NOT EXISTS idx_opp_stale   ON opportunities(model_valid, id);
CREATE INDEX IF NOT EXISTS idx_opp_created ON opportunities(created_at DESC);
`

// NewSQLite abre (o crea) la base de datos SQLite en la ruta dada y aplica el
// schema. Es el store por defecto para desarrollo local y tests (":memory:").
func NewSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLite: open %q: %w", path, err)
	}
	// SQLite es single-writer; además el backfill exige una conexión exclusiva
	// por lote, así que el pool entero es esa conexión.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLite: apply schema: %w", err)
	}

	return &Store{db: db, dollar: false}, nil
}
