package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultFormat(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1704067200000,42000,42100,41900,42050,123.4
1704067500000,42050,42200,42000,42150,98.7
`)

	candles, err := NewCSVProvider(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), candles[0].OpenTime)
	assert.Equal(t, 42000.0, candles[0].Open)
	assert.Equal(t, 42150.0, candles[1].Close)
	assert.Equal(t, 98.7, candles[1].Volume)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1704067200000,42000,42100,41900,42050,123.4
not-a-time,1,2,3,4,5
1704067500000,42050,bad,42000,42150,98.7
1704067800000,42150,42300,42100,42250,55.5
`)

	candles, err := NewCSVProvider(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	assert.Len(t, candles, 2)
}

func TestLoad_SkipsInvalidCandles(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1704067200000,42000,42100,41900,42050,123.4
1704067500000,100,90,110,-5,1000
1704067800000,42000,41900,42100,42050,123.4
1704068100000,42000,42100,41900,42050,-3
1704068400000,42000,42100,41900,42300,123.4
1704068700000,42150,42300,42100,42250,55.5
`)

	candles, err := NewCSVProvider(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	for _, c := range candles {
		assert.Positive(t, c.Close)
		assert.GreaterOrEqual(t, c.High, c.Low)
		assert.LessOrEqual(t, c.Close, c.High)
	}
}

func TestLoad_SortsByOpenTime(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1704067800000,42150,42300,42100,42250,55.5
1704067200000,42000,42100,41900,42050,123.4
`)

	candles, err := NewCSVProvider(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].OpenTime.Before(candles[1].OpenTime))
}

func TestLoad_DropsDuplicateTimestamps(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1704067200000,42000,42100,41900,42050,123.4
1704067200000,42001,42101,41901,42051,99.9
1704067500000,42050,42200,42000,42150,98.7
`)

	candles, err := NewCSVProvider(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 42000.0, candles[0].Open, "first occurrence wins")
}

func TestLoad_CustomDateFormat(t *testing.T) {
	path := writeCSV(t, `time,open,high,low,close,volume
2024-01-01 00:00:00,42000,42100,41900,42050,123.4
`)

	format := DefaultFormat
	format.DateFormat = "2006-01-02 15:04:05"
	candles, err := NewCSVProviderWithFormat(format, zerolog.Nop()).Load(path)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2024, candles[0].OpenTime.Year())
}

func TestLoad_Errors(t *testing.T) {
	_, err := NewCSVProvider(zerolog.Nop()).Load("/nonexistent.csv")
	assert.Error(t, err)

	empty := writeCSV(t, "timestamp,open,high,low,close,volume\n")
	_, err = NewCSVProvider(zerolog.Nop()).Load(empty)
	assert.Error(t, err)
}
