package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Artifact kinds
const (
	KindNetwork  = "network"
	KindForecast = "forecast"
)

// hashParts 순서 무관 심볼 + 파라미터 -> 32자 hex
func hashParts(symbols []string, params ...string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	combined := strings.Join(sorted, ",") + "|" + strings.Join(params, "|")
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:16])
}

// NetworkKey content key for a correlation network plot.
// The same symbol set (any order) and threshold always map to the same key.
func NetworkKey(symbols []string, threshold float64) string {
	return KindNetwork + "-" + hashParts(symbols, fmt.Sprintf("%.6f", threshold))
}

// ForecastKey content key for a forecast plot
func ForecastKey(symbol string, horizon int, lastDate time.Time) string {
	return KindForecast + "-" + hashParts([]string{symbol},
		fmt.Sprintf("%d", horizon), lastDate.Format("2006-01-02"))
}
