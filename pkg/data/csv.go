// Package data loads historical candles for backtesting.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/pkg/types"
)

// ColumnMapping describes where each field sits in a CSV row. Timestamps are
// either a layout-formatted string or, when DateFormat is "unix_ms", epoch
// milliseconds.
type ColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
	HasHeader    bool
}

// DefaultFormat matches the common exchange export layout:
// timestamp,open,high,low,close,volume with epoch-millisecond timestamps.
var DefaultFormat = ColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "unix_ms",
	HasHeader:    true,
}

// CSVProvider reads candle history from CSV files. Malformed rows are logged
// and skipped; the loaded series is always sorted by open time.
type CSVProvider struct {
	format ColumnMapping
	log    zerolog.Logger
}

func NewCSVProvider(log zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: DefaultFormat, log: log.With().Str("component", "csv").Logger()}
}

func NewCSVProviderWithFormat(format ColumnMapping, log zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: format, log: log.With().Str("component", "csv").Logger()}
}

// Load reads every parseable row from filename.
func (p *CSVProvider) Load(filename string) ([]types.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	line := 0
	if p.format.HasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line++
	}

	var candles []types.Candle
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++

		if len(record) < p.format.MinColumns {
			p.log.Warn().Int("line", line).Int("columns", len(record)).Msg("row too short, skipping")
			continue
		}

		candle, err := p.parseRow(record)
		if err != nil {
			p.log.Warn().Int("line", line).Err(err).Msg("unparseable row, skipping")
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("no valid candles in %s", filename)
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	candles = p.dedupe(candles)

	p.log.Info().Str("file", filename).Int("candles", len(candles)).
		Time("from", candles[0].OpenTime).
		Time("to", candles[len(candles)-1].OpenTime).
		Msg("history loaded")
	return candles, nil
}

// dedupe drops rows sharing an open time with the previous row. Input must
// already be sorted; the first occurrence wins.
func (p *CSVProvider) dedupe(candles []types.Candle) []types.Candle {
	out := candles[:1]
	for _, c := range candles[1:] {
		if c.OpenTime.Equal(out[len(out)-1].OpenTime) {
			p.log.Warn().Time("open_time", c.OpenTime).Msg("duplicate timestamp, skipping")
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *CSVProvider) parseRow(record []string) (types.Candle, error) {
	ts, err := p.parseTime(record[p.format.TimestampCol])
	if err != nil {
		return types.Candle{}, fmt.Errorf("timestamp: %w", err)
	}

	fields := [5]float64{}
	cols := [5]int{p.format.OpenCol, p.format.HighCol, p.format.LowCol, p.format.CloseCol, p.format.VolumeCol}
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i, col := range cols {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("%s: %w", names[i], err)
		}
		fields[i] = v
	}

	candle := types.Candle{
		OpenTime: ts,
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}
	if err := validateCandle(candle); err != nil {
		return types.Candle{}, err
	}
	return candle, nil
}

// validateCandle rejects rows with non-positive prices, negative volume, or
// a high/low range that does not contain the open and close.
func validateCandle(c types.Candle) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price (o=%g h=%g l=%g c=%g)", c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume %g", c.Volume)
	}
	if c.High < c.Low {
		return fmt.Errorf("high %g below low %g", c.High, c.Low)
	}
	if c.Open > c.High || c.Open < c.Low || c.Close > c.High || c.Close < c.Low {
		return fmt.Errorf("open/close outside high-low range (o=%g h=%g l=%g c=%g)", c.Open, c.High, c.Low, c.Close)
	}
	return nil
}

func (p *CSVProvider) parseTime(raw string) (time.Time, error) {
	if p.format.DateFormat == "unix_ms" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(p.format.DateFormat, raw)
}
