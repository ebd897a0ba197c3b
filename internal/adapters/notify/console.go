package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/weatheredge/internal/domain"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/time/rate"
)

// Console implementa ports.Reporter escribiendo texto plano a stdout.
// La línea de progreso se sobreescribe in-place; en una migración de horas
// sobre millones de filas, imprimir una línea por lote inunda la terminal
// (o el log capturado), así que el redibujado va limitado por un rate.Limiter.
type Console struct {
	out    io.Writer
	redraw *rate.Limiter
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{
		out:    os.Stdout,
		redraw: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// NewConsoleWriter crea un reporter sin throttle, para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, redraw: rate.NewLimiter(rate.Inf, 1)}
}

// RunStarted anuncia el arranque del run.
func (c *Console) RunStarted(stats domain.RunStats) {
	fmt.Fprintf(c.out, "Backfill run %s\n", stats.RunID)
	fmt.Fprintf(c.out, "Stale records: %d\n", stats.Total)
}

// Progress refresca la línea de avance. Los saltos intermedios que el throttle
// descarta no importan: la siguiente línea ya lleva los contadores acumulados.
func (c *Console) Progress(stats domain.RunStats) {
	if !c.redraw.Allow() {
		return
	}
	fmt.Fprintf(c.out, "\r  %d/%d (%.1f%%) — updated:%d skipped:%d errors:%d",
		stats.Processed, stats.Total, stats.Percent(),
		stats.Updated, stats.Skipped, stats.Errors,
	)
}

// Summary imprime el resumen final. Siempre se imprime completo, haya o no
// llegado a dibujarse la última línea de progreso.
func (c *Console) Summary(stats domain.RunStats, elapsed time.Duration) {
	fmt.Fprintf(c.out, "\r  %d/%d (%.1f%%) — updated:%d skipped:%d errors:%d\n",
		stats.Processed, stats.Total, stats.Percent(),
		stats.Updated, stats.Skipped, stats.Errors,
	)
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Backfill complete (run %s)\n", stats.RunID)
	fmt.Fprintf(c.out, "  processed: %d\n", stats.Processed)
	fmt.Fprintf(c.out, "  updated:   %d\n", stats.Updated)
	fmt.Fprintf(c.out, "  skipped:   %d\n", stats.Skipped)
	fmt.Fprintf(c.out, "  errors:    %d\n", stats.Errors)
	fmt.Fprintf(c.out, "  elapsed:   %s\n", elapsed.Round(time.Second))
}

// Sample imprime la muestra de verificación: registros ya resueltos, para que
// el operador compruebe a ojo que probabilidad, edge y resultado real cuadran.
func (c *Console) Sample(opps []domain.Opportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(c.out, "\nNo resolved records to sample.")
		return
	}

	fmt.Fprintln(c.out, "\nVerification sample (resolved records):")
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "City", "Platform", "Side", "Prob", "Edge%", "Kelly", "Won")

	for _, o := range opps {
		won := "-"
		if o.WouldHaveWon != nil {
			won = "no"
			if *o.WouldHaveWon {
				won = "yes"
			}
		}
		table.Append(
			fmt.Sprintf("%d", o.ID),
			o.City,
			string(o.Platform),
			string(o.Side),
			fmt.Sprintf("%.4f", o.Pricing.CorrectedProbability),
			fmt.Sprintf("%+.2f", o.Pricing.EdgePct),
			fmt.Sprintf("%.4f", o.Pricing.KellyFraction),
			won,
		)
	}

	table.Render()
}

// StaleRemaining informa cuántos registros siguen en el modelo viejo.
func (c *Console) StaleRemaining(n int64) {
	if n == 0 {
		fmt.Fprintln(c.out, "Stale records remaining: 0 — migration complete.")
		return
	}
	fmt.Fprintf(c.out, "WARNING: %d stale records remaining — re-run to finish the migration.\n", n)
}
