package batch_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rshade/batchkit/internal/batch"
)

// mixedInputs returns n items where every hundredth one is not numeric.
func mixedInputs(n int) []any {
	items := make([]any, n)
	for i := range items {
		if i%100 == 99 {
			items[i] = "bad"
			continue
		}
		items[i] = i
	}
	return items
}

// BenchmarkRun_Sequential benchmarks a sequential run over 10k items.
func BenchmarkRun_Sequential(b *testing.B) {
	b.ReportAllocs()
	items := mixedInputs(10000)

	b.ResetTimer()
	for range b.N {
		if _, err := batch.Run(context.Background(), items, divideBy5, nop()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_Parallel benchmarks parallel runs over 10k items for several
// worker and chunk sizes.
func BenchmarkRun_Parallel(b *testing.B) {
	items := mixedInputs(10000)

	for _, workers := range []int{2, 8} {
		for _, chunk := range []int{1, 64} {
			b.Run(fmt.Sprintf("workers=%d/chunk=%d", workers, chunk), func(b *testing.B) {
				b.ReportAllocs()
				for range b.N {
					_, err := batch.Run(context.Background(), items, divideBy5,
						batch.WithConcurrency(workers), batch.WithChunkSize(chunk), nop())
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
