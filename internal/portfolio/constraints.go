package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/niftyquant/internal/contracts"
)

// Constraints 가중치 제약 (공매도 금지, 완전 투자)
// ⭐ SSOT: 포트폴리오 제약조건은 여기서만
type Constraints struct {
	MinWeight float64 // 종목당 최소 비중 (clamp 하한, 기본 0)
}

// DefaultConstraints returns the long-only fully-invested simplex
func DefaultConstraints() Constraints {
	return Constraints{MinWeight: 0}
}

// Project 음수 비중을 0으로 clamp 한 뒤 합계 1로 재정규화 (in place)
// 합계가 0이 되거나 유한하지 않으면 ErrConvergence
func (c Constraints) Project(w []float64) error {
	for i, v := range w {
		if v < c.MinWeight {
			w[i] = c.MinWeight
		}
	}

	sum := floats.Sum(w)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: weights collapsed (sum=%v)", contracts.ErrConvergence, sum)
	}
	floats.Scale(1/sum, w)
	return nil
}

// Feasible reports whether w lies on the simplex within tol
func (c Constraints) Feasible(w []float64, tol float64) bool {
	for _, v := range w {
		if v < c.MinWeight-tol || math.IsNaN(v) {
			return false
		}
	}
	return math.Abs(floats.Sum(w)-1) <= tol
}
