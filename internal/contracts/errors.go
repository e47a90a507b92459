package contracts

import "errors"

// =============================================================================
// Error taxonomy
// =============================================================================

// 분석 엔진의 모든 실패는 아래 sentinel 중 하나를 %w 로 감싸서 반환
// 엔진은 재시도하지 않음 (결정적 계산이므로 같은 실패가 재현됨)
var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrEmptyPriceData      = errors.New("empty price data")
	ErrConvergence         = errors.New("convergence failure")
	ErrModelNotAvailable   = errors.New("model not available")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrInvalidInput        = errors.New("invalid input")
)

// Error kinds exposed at the transport boundary
const (
	KindInsufficientData    = "INSUFFICIENT_DATA"
	KindSymbolNotFound      = "SYMBOL_NOT_FOUND"
	KindEmptyPriceData      = "EMPTY_PRICE_DATA"
	KindConvergence         = "CONVERGENCE"
	KindModelNotAvailable   = "MODEL_NOT_AVAILABLE"
	KindInsufficientHistory = "INSUFFICIENT_HISTORY"
	KindInvalidInput        = "INVALID_INPUT"
	KindInternal            = "INTERNAL"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInsufficientData, KindInsufficientData},
	{ErrSymbolNotFound, KindSymbolNotFound},
	{ErrEmptyPriceData, KindEmptyPriceData},
	{ErrConvergence, KindConvergence},
	{ErrModelNotAvailable, KindModelNotAvailable},
	{ErrInsufficientHistory, KindInsufficientHistory},
	{ErrInvalidInput, KindInvalidInput},
}

// ErrorKind returns the taxonomy kind of err, KindInternal for anything else
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
