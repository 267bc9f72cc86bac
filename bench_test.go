package skipdict

import (
	"fmt"
	"math/rand"
	"testing"
)

type distributionKind int

const (
	distUniform distributionKind = iota
	distAscending
	distZipf
)

func BenchmarkMapWorkloads(b *testing.B) {
	distributions := []struct {
		name string
		kind distributionKind
	}{
		{name: "Uniform", kind: distUniform},
		{name: "Ascending", kind: distAscending},
		{name: "Zipfian", kind: distZipf},
	}

	workloads := []struct {
		name         string
		writePercent int
	}{
		{name: "ReadMostly", writePercent: 5},
		{name: "WriteHeavy", writePercent: 90},
		{name: "Mixed", writePercent: 50},
	}

	allocators := []struct {
		name string
		opts []Option
	}{
		{name: "Heap"},
		{name: "Pool", opts: []Option{WithNodePool()}},
	}

	const keyRange = 1 << 12

	for _, dist := range distributions {
		b.Run(dist.name, func(b *testing.B) {
			for _, workload := range workloads {
				b.Run(workload.name, func(b *testing.B) {
					for _, alloc := range allocators {
						b.Run(alloc.name, func(b *testing.B) {
							m, err := New[int, int](nil, append([]Option{WithSeed(1)}, alloc.opts...)...)
							if err != nil {
								b.Fatal(err)
							}
							for i := 0; i < keyRange/2; i++ {
								_, _, _ = m.Insert(i, i)
							}

							r := rand.New(rand.NewSource(1_000_003))
							var zipf *rand.Zipf
							if dist.kind == distZipf {
								zipf = rand.NewZipf(r, 1.2, 1, keyRange-1)
							}

							b.ResetTimer()
							for i := 0; i < b.N; i++ {
								var key int
								switch dist.kind {
								case distUniform:
									key = r.Intn(keyRange)
								case distAscending:
									key = i % keyRange
								case distZipf:
									key = int(zipf.Uint64())
								}

								if r.Intn(100) < workload.writePercent {
									if r.Intn(2) == 0 {
										_, _, _ = m.Insert(key, i)
									} else {
										_, _ = m.Remove(key)
									}
								} else {
									if r.Intn(2) == 0 {
										_, _ = m.Get(key)
									} else {
										_ = m.Contains(key)
									}
								}
							}
							b.StopTimer()

							s := m.Stats()
							b.ReportMetric(float64(s.Level), "level")
						})
					}
				})
			}
		})
	}
}

func BenchmarkExtremal(b *testing.B) {
	for _, n := range []int{1 << 8, 1 << 12, 1 << 16} {
		b.Run(fmt.Sprintf("N%d", n), func(b *testing.B) {
			m, err := New[int64, int](nil, WithSeed(7))
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < n; i++ {
				_, _, _ = m.Insert(int64(i), i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				k, v, _ := m.PopMax()
				_, _, _ = m.Insert(k, v)
			}
		})
	}
}
