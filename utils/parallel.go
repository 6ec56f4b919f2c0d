package utils

import (
	"context"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// IndexWorkFunc runs once for every index of a parallelized range.
type IndexWorkFunc func(workNum int)

// GroupWorkParallel splits [0, totalSize) into at most ParallelFactor contiguous groups and runs
// work for every index, one goroutine per group. Each index is visited exactly once. The context is
// checked before every index; the first context error is returned after all groups finish.
func GroupWorkParallel(ctx context.Context, totalSize int, work IndexWorkFunc) error {
	if totalSize <= 0 {
		return nil
	}
	numGroups := ParallelFactor
	if numGroups > totalSize {
		numGroups = totalSize
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		from := groupSize * groupNum
		to := from + groupSize
		// the last group picks up the remainder
		if groupNum == numGroups-1 {
			to += extra
		}
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			for workNum := from; workNum < to; workNum++ {
				if ctx.Err() != nil {
					return
				}
				work(workNum)
			}
		})
	}
	wait.Wait()
	return ctx.Err()
}
