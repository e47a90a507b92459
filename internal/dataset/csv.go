// Package dataset provides DataSource implementations and the shared snapshot store
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/niftyquant/internal/contracts"
)

var (
	ErrEmptyFile     = errors.New("CSV file is empty")
	ErrMissingColumn = errors.New("required column missing")
	ErrUnknownSet    = errors.New("unknown dataset")
)

// dateLayouts 허용 날짜 포맷 (pandas 저장 형식 포함)
var dateLayouts = []string{
	contracts.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
}

// CSVSource 파일 기반 DataSource
// stocks: Date + 종목별 종가 컬럼 (wide), index: Date + Close_/Open_/High_/Low_ 접두 컬럼,
// sector map: Symbol, Company, Sector
type CSVSource struct {
	stockPath  string
	indexPath  string
	sectorPath string
}

// NewCSVSource creates a CSV data source
func NewCSVSource(stockPath, indexPath, sectorPath string) *CSVSource {
	return &CSVSource{
		stockPath:  stockPath,
		indexPath:  indexPath,
		sectorPath: sectorPath,
	}
}

// LoadPriceTable reads the wide close-price table of dataset
func (s *CSVSource) LoadPriceTable(_ context.Context, dataset string) (*contracts.PriceTable, error) {
	if dataset != contracts.DatasetStocks {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSet, dataset)
	}

	records, err := readCSV(s.stockPath)
	if err != nil {
		return nil, err
	}
	return ParsePriceTable(records)
}

// LoadIndexBars reads the OHLC index file
func (s *CSVSource) LoadIndexBars(_ context.Context, dataset string) ([]contracts.Bar, error) {
	if dataset != contracts.DatasetIndex {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSet, dataset)
	}

	records, err := readCSV(s.indexPath)
	if err != nil {
		return nil, err
	}
	return ParseIndexBars(records)
}

// LoadUniverse reads the symbol/company/sector listing
func (s *CSVSource) LoadUniverse(_ context.Context) ([]contracts.StockInfo, error) {
	records, err := readCSV(s.sectorPath)
	if err != nil {
		return nil, err
	}
	return ParseUniverse(records)
}

// LoadSectorMap derives symbol -> sector from the universe listing
func (s *CSVSource) LoadSectorMap(ctx context.Context) (contracts.SectorMap, error) {
	stocks, err := s.LoadUniverse(ctx)
	if err != nil {
		return nil, err
	}
	return contracts.NewSectorMap(stocks), nil
}

// =============================================================================
// Parsers
// =============================================================================

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadRecords reads all CSV records, tolerating ragged rows
func ReadRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

// ParsePriceTable wide 테이블 파싱. 빈 셀 = 결측 (NaN), 날짜 오름차순 정렬
func ParsePriceTable(records [][]string) (*contracts.PriceTable, error) {
	header := records[0]
	dateCol := columnIndex(header, "Date")
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: Date", ErrMissingColumn)
	}

	type row struct {
		date   time.Time
		values []string
	}
	rows := make([]row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) <= dateCol || strings.TrimSpace(rec[dateCol]) == "" {
			continue
		}
		d, err := parseDate(rec[dateCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row{date: d, values: rec})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.date
	}

	symbols := make([]string, 0, len(header)-1)
	columns := make(map[string][]float64, len(header)-1)
	for c, name := range header {
		name = strings.TrimSpace(name)
		if c == dateCol || name == "" {
			continue
		}
		col := make([]float64, len(rows))
		for i, r := range rows {
			v, err := parseCell(r.values, c)
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %w", name, r.date.Format(contracts.DateLayout), err)
			}
			col[i] = v
		}
		symbols = append(symbols, name)
		columns[name] = col
	}

	return contracts.NewPriceTable(dates, symbols, columns)
}

// ParseIndexBars Close_/Open_/High_/Low_ 접두 컬럼을 찾아 OHLC 로 파싱
// 종가가 비어 있는 행은 건너뜀
func ParseIndexBars(records [][]string) ([]contracts.Bar, error) {
	header := records[0]
	dateCol := columnIndex(header, "Date")
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: Date", ErrMissingColumn)
	}

	cols := make(map[string]int, 4)
	for _, prefix := range []string{"Close_", "Open_", "High_", "Low_"} {
		idx := prefixIndex(header, prefix)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s*", ErrMissingColumn, prefix)
		}
		cols[prefix] = idx
	}

	bars := make([]contracts.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) <= dateCol {
			continue
		}
		d, err := parseDate(rec[dateCol])
		if err != nil {
			// yfinance 보조 헤더 행 (Ticker, Date 등)
			continue
		}

		var vals [4]float64
		for k, prefix := range []string{"Close_", "Open_", "High_", "Low_"} {
			v, err := parseCell(rec, cols[prefix])
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", i+2, prefix, err)
			}
			vals[k] = v
		}
		if math.IsNaN(vals[0]) {
			continue
		}

		bars = append(bars, contracts.Bar{Date: d, Close: vals[0], Open: vals[1], High: vals[2], Low: vals[3]})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ParseUniverse Symbol, Company, Sector 컬럼
func ParseUniverse(records [][]string) ([]contracts.StockInfo, error) {
	header := records[0]
	symCol := columnIndex(header, "Symbol")
	if symCol < 0 {
		return nil, fmt.Errorf("%w: Symbol", ErrMissingColumn)
	}
	companyCol := columnIndex(header, "Company")
	sectorCol := columnIndex(header, "Sector")

	stocks := make([]contracts.StockInfo, 0, len(records)-1)
	for _, rec := range records[1:] {
		sym := cell(rec, symCol)
		if sym == "" {
			continue
		}
		stocks = append(stocks, contracts.StockInfo{
			Symbol:  sym,
			Company: cell(rec, companyCol),
			Sector:  cell(rec, sectorCol),
		})
	}
	return stocks, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func prefixIndex(header []string, prefix string) int {
	for i, h := range header {
		if strings.HasPrefix(strings.TrimSpace(h), prefix) {
			return i
		}
	}
	return -1
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func parseCell(rec []string, idx int) (float64, error) {
	raw := cell(rec, idx)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", contracts.ErrInvalidInput, raw)
}
