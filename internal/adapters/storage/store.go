package storage

// store.go — implementación compartida de ports.OpportunityStore sobre
// database/sql. Las queries se escriben una sola vez con placeholders `?` y se
// reescriben a `$n` para Postgres. Las diferencias reales entre drivers
// (schema, last-insert-id, savepoints) viven en sqlite.go / postgres.go.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alejandrodnm/weatheredge/internal/domain"
	"github.com/alejandrodnm/weatheredge/internal/ports"
)

const selectCols = `id, city, platform, side, range_type,
	forecast_temp, ensemble_std_dev, range_min, range_max, range_unit,
	ask, bid, spread, hours_to_resolution, range_width,
	our_probability, corrected_probability, correction_ratio,
	edge_pct, expected_value, kelly_fraction,
	would_pass_5, would_pass_8, would_pass_10, would_pass_15,
	model_valid, would_have_won, created_at`

// Un registro es stale si nunca pasó por el modelo actual: model_valid falso,
// o NULL si lo creó un ingestor anterior a la columna.
const stalePredicate = `(model_valid IS NULL OR model_valid = ?)`

// Store implementa ports.OpportunityStore para SQLite y Postgres.
type Store struct {
	db     *sql.DB
	dollar bool // reescribir ? → $n (Postgres)
}

// rebind adapta los placeholders de una query al driver activo.
func (s *Store) rebind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CountStale devuelve cuántos registros siguen en el modelo viejo.
func (s *Store) CountStale(ctx context.Context) (int64, error) {
	var n int64
	query := s.rebind(`SELECT COUNT(*) FROM opportunities WHERE ` + stalePredicate)
	if err := s.db.QueryRowContext(ctx, query, false).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountStale: %w", err)
	}
	return n, nil
}

// FetchStaleAfter devuelve el siguiente lote de registros stale, ordenado por
// id ascendente a partir del cursor (exclusivo).
func (s *Store) FetchStaleAfter(ctx context.Context, cursor int64, limit int) ([]domain.Opportunity, error) {
	query := s.rebind(`
		SELECT ` + selectCols + `
		FROM opportunities
		WHERE ` + stalePredicate + ` AND id > ?
		ORDER BY id ASC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, false, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchStaleAfter: query: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

// SampleResolved devuelve registros ya recalculados y con resultado conocido,
// los más recientes primero.
func (s *Store) SampleResolved(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := s.rebind(`
		SELECT ` + selectCols + `
		FROM opportunities
		WHERE model_valid = ? AND would_have_won IS NOT NULL
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, true, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.SampleResolved: query: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

// BeginBatch abre una transacción sobre una conexión exclusiva del pool. La
// conexión no vuelve al pool hasta Commit/Rollback.
func (s *Store) BeginBatch(ctx context.Context) (ports.BatchTx, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.BeginBatch: acquire conn: %w", err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage.BeginBatch: begin: %w", err)
	}
	return &batchTx{store: s, conn: conn, tx: tx}, nil
}

// Insert inserta un registro tal como lo dejaría el ingestor (model_valid en
// falso). Lo usan los tests y el seeding de entornos locales.
func (s *Store) Insert(ctx context.Context, o domain.Opportunity) (int64, error) {
	const cols = `city, platform, side, range_type,
		forecast_temp, ensemble_std_dev, range_min, range_max, range_unit,
		ask, bid, spread, hours_to_resolution, range_width,
		model_valid, would_have_won, created_at`
	args := []any{
		o.City, string(o.Platform), string(o.Side), o.RangeType,
		o.ForecastTemp, o.EnsembleStdDev, o.RangeMin, o.RangeMax, string(o.RangeUnit),
		o.Ask, o.Bid, o.Spread, o.HoursToResolution, o.RangeWidth,
		o.ModelValid, o.WouldHaveWon, o.CreatedAt.UTC(),
	}

	if s.dollar {
		var id int64
		query := s.rebind(`INSERT INTO opportunities (` + cols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("storage.Insert: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO opportunities (`+cols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("storage.Insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.Insert: last insert id: %w", err)
	}
	return id, nil
}

// Close cierra la conexión a la base de datos.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- transacción por lote ---

type batchTx struct {
	store *Store
	conn  *sql.Conn
	tx    *sql.Tx
}

// UpdatePricing sobreescribe los derivados de una fila y la marca model_valid.
// En Postgres un statement fallido invalida la transacción entera, así que cada
// update va envuelto en un SAVEPOINT: el fallo de una fila no arrastra al lote.
func (t *batchTx) UpdatePricing(ctx context.Context, id int64, p domain.Pricing) error {
	if t.store.dollar {
		if _, err := t.tx.ExecContext(ctx, `SAVEPOINT record_update`); err != nil {
			return fmt.Errorf("storage.UpdatePricing: savepoint: %w", err)
		}
	}

	err := t.exec(ctx, id, p)

	if t.store.dollar {
		if err != nil {
			if _, rbErr := t.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT record_update`); rbErr != nil {
				return fmt.Errorf("storage.UpdatePricing: rollback to savepoint: %w", rbErr)
			}
			return err
		}
		if _, err := t.tx.ExecContext(ctx, `RELEASE SAVEPOINT record_update`); err != nil {
			return fmt.Errorf("storage.UpdatePricing: release savepoint: %w", err)
		}
	}
	return err
}

func (t *batchTx) exec(ctx context.Context, id int64, p domain.Pricing) error {
	query := t.store.rebind(`
		UPDATE opportunities SET
			our_probability       = ?,
			corrected_probability = ?,
			correction_ratio      = ?,
			edge_pct              = ?,
			expected_value        = ?,
			kelly_fraction        = ?,
			would_pass_5          = ?,
			would_pass_8          = ?,
			would_pass_10         = ?,
			would_pass_15         = ?,
			model_valid           = ?
		WHERE id = ?`)

	if _, err := t.tx.ExecContext(ctx, query,
		p.OurProbability,
		p.CorrectedProbability,
		p.CorrectionRatio,
		p.EdgePct,
		p.ExpectedValue,
		p.KellyFraction,
		p.PassesEdge5,
		p.PassesEdge8,
		p.PassesEdge10,
		p.PassesEdge15,
		true,
		id,
	); err != nil {
		return fmt.Errorf("storage.UpdatePricing: id %d: %w", id, err)
	}
	return nil
}

func (t *batchTx) Commit() error {
	defer t.conn.Close()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("storage.Commit: %w", err)
	}
	return nil
}

func (t *batchTx) Rollback() error {
	defer t.conn.Close()
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("storage.Rollback: %w", err)
	}
	return nil
}

// --- scan ---

// collectOpportunities materializa las filas de una query con selectCols.
func collectOpportunities(rows *sql.Rows) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	for rows.Next() {
		var (
			o          domain.Opportunity
			platform   string
			side       string
			unit       string
			rangeType  sql.NullString
			pricing    [6]sql.NullFloat64
			flags      [4]sql.NullBool
			modelValid sql.NullBool
			createdAt  sql.NullTime
		)

		if err := rows.Scan(
			&o.ID, &o.City, &platform, &side, &rangeType,
			&o.ForecastTemp, &o.EnsembleStdDev, &o.RangeMin, &o.RangeMax, &unit,
			&o.Ask, &o.Bid, &o.Spread, &o.HoursToResolution, &o.RangeWidth,
			&pricing[0], &pricing[1], &pricing[2], &pricing[3], &pricing[4], &pricing[5],
			&flags[0], &flags[1], &flags[2], &flags[3],
			&modelValid, &o.WouldHaveWon, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}

		o.Platform = domain.Platform(platform)
		o.Side = domain.Side(side)
		o.RangeUnit = domain.RangeUnit(unit)
		o.RangeType = rangeType.String
		o.Pricing = domain.Pricing{
			OurProbability:       pricing[0].Float64,
			CorrectedProbability: pricing[1].Float64,
			CorrectionRatio:      pricing[2].Float64,
			EdgePct:              pricing[3].Float64,
			ExpectedValue:        pricing[4].Float64,
			KellyFraction:        pricing[5].Float64,
			PassesEdge5:          flags[0].Bool,
			PassesEdge8:          flags[1].Bool,
			PassesEdge10:         flags[2].Bool,
			PassesEdge15:         flags[3].Bool,
		}
		o.ModelValid = modelValid.Valid && modelValid.Bool
		if createdAt.Valid {
			o.CreatedAt = createdAt.Time
		}

		opps = append(opps, o)
	}
	return opps, rows.Err()
}
