package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/weatheredge/internal/adapters/storage"
	"github.com/alejandrodnm/weatheredge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func makeStale(city string) domain.Opportunity {
	return domain.Opportunity{
		City:           city,
		Platform:       domain.PlatformPolymarket,
		Side:           domain.SideYes,
		ForecastTemp:   fptr(70),
		EnsembleStdDev: fptr(2),
		RangeMin:       fptr(68),
		RangeMax:       fptr(72),
		RangeUnit:      domain.UnitFahrenheit,
		RangeType:      "bounded",
		Ask:            fptr(0.55),
		Bid:            fptr(0.53),
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func makePricing() domain.Pricing {
	return domain.Pricing{
		OurProbability:       0.4215,
		CorrectedProbability: 0.4215,
		CorrectionRatio:      1.0,
		EdgePct:              -12.85,
		ExpectedValue:        -0.1285,
		KellyFraction:        0,
	}
}

func TestStore_InsertAndFetchStale(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	id1, err := db.Insert(ctx, makeStale("Austin"))
	require.NoError(t, err)
	id2, err := db.Insert(ctx, makeStale("Denver"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1, "ids deben ser monótonos para paginar")

	n, err := db.CountStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	batch, err := db.FetchStaleAfter(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "Austin", batch[0].City)
	assert.Equal(t, domain.UnitFahrenheit, batch[0].RangeUnit)
	require.NotNil(t, batch[0].ForecastTemp)
	assert.InDelta(t, 70.0, *batch[0].ForecastTemp, 1e-9)
	assert.False(t, batch[0].ModelValid)
}

func TestStore_FetchStaleAfter_CursorExcludes(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id1, err := db.Insert(ctx, makeStale("Austin"))
	require.NoError(t, err)
	_, err = db.Insert(ctx, makeStale("Denver"))
	require.NoError(t, err)

	batch, err := db.FetchStaleAfter(ctx, id1, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "Denver", batch[0].City)
}

func TestStore_NullColumnsScanAsNil(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	opp := makeStale("Chicago")
	opp.RangeMin = nil // contrato "X or below"
	opp.Ask = nil
	_, err = db.Insert(ctx, opp)
	require.NoError(t, err)

	batch, err := db.FetchStaleAfter(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Nil(t, batch[0].RangeMin)
	assert.Nil(t, batch[0].Ask)
	assert.NotNil(t, batch[0].RangeMax)
	assert.Nil(t, batch[0].WouldHaveWon)
}

func TestStore_BatchUpdateCommit(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id, err := db.Insert(ctx, makeStale("Austin"))
	require.NoError(t, err)

	tx, err := db.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdatePricing(ctx, id, makePricing()))
	require.NoError(t, tx.Commit())

	n, err := db.CountStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "la fila actualizada deja de estar stale")
}

func TestStore_BatchRollbackLeavesStale(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id, err := db.Insert(ctx, makeStale("Austin"))
	require.NoError(t, err)

	tx, err := db.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdatePricing(ctx, id, makePricing()))
	require.NoError(t, tx.Rollback())

	n, err := db.CountStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_SampleResolved(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	// resuelto y recalculado → entra en la muestra
	resolved := makeStale("Austin")
	resolved.WouldHaveWon = bptr(true)
	idResolved, err := db.Insert(ctx, resolved)
	require.NoError(t, err)

	// stale sin resolver → fuera
	_, err = db.Insert(ctx, makeStale("Denver"))
	require.NoError(t, err)

	tx, err := db.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdatePricing(ctx, idResolved, makePricing()))
	require.NoError(t, tx.Commit())

	sample, err := db.SampleResolved(ctx, 5)
	require.NoError(t, err)
	require.Len(t, sample, 1)
	assert.Equal(t, "Austin", sample[0].City)
	assert.True(t, sample[0].ModelValid)
	require.NotNil(t, sample[0].WouldHaveWon)
	assert.True(t, *sample[0].WouldHaveWon)
	assert.InDelta(t, -12.85, sample[0].Pricing.EdgePct, 1e-9)
}

func TestStore_UpdatePersistsAllDerivedFields(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	opp := makeStale("Austin")
	opp.WouldHaveWon = bptr(false)
	id, err := db.Insert(ctx, opp)
	require.NoError(t, err)

	p := domain.Pricing{
		OurProbability:       0.6,
		CorrectedProbability: 0.6,
		CorrectionRatio:      1,
		EdgePct:              5.0,
		ExpectedValue:        0.05,
		KellyFraction:        0.0455,
		PassesEdge5:          true,
	}
	tx, err := db.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdatePricing(ctx, id, p))
	require.NoError(t, tx.Commit())

	sample, err := db.SampleResolved(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sample, 1)
	assert.Equal(t, p, sample[0].Pricing)
}
