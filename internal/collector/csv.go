package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"GapSentinel/internal/model"
)

// CSVFetcher replays candles from <Dir>/<SYMBOL>.csv files. Files are taken
// to already be at the configured timeframe.
type CSVFetcher struct {
	Dir string
}

// NewCSVFetcher creates a fetcher over a directory of candle files.
func NewCSVFetcher(dir string) *CSVFetcher { return &CSVFetcher{Dir: dir} }

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchCandles(_ context.Context, symbol, _ string, limit int) ([]model.OHLCV, error) {
	bars, err := loadCSV(filepath.Join(f.Dir, symbol+".csv"))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// FetchVolumes sums close*volume per file as the quote volume proxy.
func (f *CSVFetcher) FetchVolumes(_ context.Context) ([]model.SymbolVolume, error) {
	paths, err := filepath.Glob(filepath.Join(f.Dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]model.SymbolVolume, 0, len(paths))
	for _, p := range paths {
		bars, err := loadCSV(p)
		if err != nil {
			return nil, err
		}
		var qv float64
		for _, b := range bars {
			qv += b.Close * b.Volume
		}
		out = append(out, model.SymbolVolume{
			Symbol:      strings.TrimSuffix(filepath.Base(p), ".csv"),
			QuoteVolume: qv,
		})
	}
	return out, nil
}

// loadCSV reads a candle CSV with headers:
// time|timestamp, open, high, low, close, volume
func loadCSV(path string) ([]model.OHLCV, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	var headers []string
	var bars []model.OHLCV
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		if headers == nil {
			headers = make([]string, len(rec))
			for i, h := range rec {
				headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			}
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			if j < len(rec) {
				row[h] = strings.TrimSpace(rec[j])
			}
		}
		bar, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseRow(row map[string]string) (model.OHLCV, error) {
	ts, err := parseTimeFlexible(first(row, "time", "timestamp"))
	if err != nil {
		return model.OHLCV{}, err
	}
	var vals [5]float64
	for i, keys := range [][]string{{"open"}, {"high"}, {"low"}, {"close"}, {"volume", "vol"}} {
		s := first(row, keys...)
		if s == "" && keys[0] == "volume" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("bad %s %q", keys[0], s)
		}
		vals[i] = v
	}
	return model.OHLCV{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

// parseTimeFlexible supports RFC3339, UNIX seconds or UNIX milliseconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
