package forecast

import "time"

// IsTradingDay 월~금 (휴장일 캘린더는 모델링하지 않음)
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDays last 다음날부터 하루씩 전진, 평일만 n개 수집
// 주말을 건너면 5거래일 = 달력 7일
func TradingDays(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}

	out := make([]time.Time, 0, n)
	current := last
	for len(out) < n {
		current = current.AddDate(0, 0, 1)
		if IsTradingDay(current) {
			out = append(out, current)
		}
	}
	return out
}
