package readingstore

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"zkhmon-backend/lib/scrapers/zkh"
	"zkhmon-backend/lib/telemetry"
	"zkhmon-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testResult(value int64) zkh.FetchResult {
	date := "2024-03-05"
	return zkh.FetchResult{
		Meters: map[string]zkh.MeterRecord{
			"100_200": {
				Name:         "ХВС №100-200",
				Units:        "куб.м.",
				SerialNumber: "100-200",
				TypeName:     "ХВС",
				Value:        value,
				ValueDate:    &date,
			},
		},
		Tariffs: map[string]zkh.TariffRecord{},
		Date:    &date,
	}
}

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:readingstore")
	defer cleanup()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer sqlite.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	store, err := NewStore(ctx, sqlite)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Latest(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	day1 := time.Date(2024, 3, 5, 9, 0, 0, 0, timezone.Location)
	day1Later := time.Date(2024, 3, 5, 21, 0, 0, 0, timezone.Location)
	day2 := time.Date(2024, 3, 6, 9, 0, 0, 0, timezone.Location)

	err = store.Push(ctx, day1, testResult(381))
	if err != nil {
		t.Fatal(err)
	}
	err = store.Push(ctx, day1Later, testResult(382))
	if err != nil {
		t.Fatal(err)
	}
	err = store.Push(ctx, day2, testResult(384))
	if err != nil {
		t.Fatal(err)
	}

	snapshot, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, day2.Unix(), snapshot.Time.Unix())
	require.Equal(t, int64(384), snapshot.Result.Meters["100_200"].Value)

	// the two same-day pushes collapse into one point
	points, err := store.MeterHistory(ctx, "100_200")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, points, 2)
	require.Equal(t, int64(382), points[0].Value)
	require.Equal(t, day1Later.Unix(), points[0].Time.Unix())
	require.Equal(t, int64(384), points[1].Value)

	unknown, err := store.MeterHistory(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, unknown, 0)
}
