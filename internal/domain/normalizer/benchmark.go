package normalizer

import "github.com/questx-lab/reputation/internal/entity"

// Benchmarks are the raw values mapped to a score of 100, one per radar
// dimension.
type Benchmarks = entity.SkillScores

// BenchmarkProvider supplies the benchmarks used by Recalculate.
type BenchmarkProvider interface {
	Benchmarks() Benchmarks
}

// FixedBenchmarks always returns the same table.
type FixedBenchmarks struct {
	table Benchmarks
}

func NewFixedBenchmarks(table Benchmarks) *FixedBenchmarks {
	return &FixedBenchmarks{table: table}
}

// DefaultBenchmarks approximate the 95th percentile of active developers.
func DefaultBenchmarks() *FixedBenchmarks {
	return NewFixedBenchmarks(Benchmarks{
		Coding:          1000,
		Quality:         50,
		BugDetection:    20,
		Security:        10,
		Collaboration:   100,
		Architecture:    5,
		Consistency:     30,
		CommunityImpact: 50,
	})
}

func (b *FixedBenchmarks) Benchmarks() Benchmarks {
	return b.table
}
