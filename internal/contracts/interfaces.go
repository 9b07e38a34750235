package contracts

import "time"

// Partitioner splits a date range into contiguous intervals (S1)
// ⭐ SSOT: S1 구간 분할 인터페이스
type Partitioner interface {
	Split(start, end time.Time, n int) ([]Interval, error)
}

// CloudFilter picks a usable cloud-free subset of one interval (S2)
// ⭐ SSOT: S2 구름 필터 인터페이스
type CloudFilter interface {
	Filter(samples []Sample) ([]Sample, int)
}

// CompositeSelector picks the best sample of a subset (S3)
// ⭐ SSOT: S3 대표 관측 선택 인터페이스
type CompositeSelector interface {
	Select(samples []Sample) CompositeResult
}

// PixelEvaluator composites one pixel's observations into interval bins (S4)
// ⭐ SSOT: S4 픽셀 합성 인터페이스
type PixelEvaluator interface {
	Evaluate(observations []Observation) *PixelOutput
}
