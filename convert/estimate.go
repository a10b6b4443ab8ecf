package convert

import (
	"math"
	"sync"
	"time"
)

// maxEstimate keeps the estimate below completion until the tool exits
const maxEstimate = 0.99

// Estimate approximates progress of a tool that reports none:
// 1 - e^(-elapsed/expected), capped at 0.99
func Estimate(elapsed, expected time.Duration) float64 {
	if expected <= 0 || elapsed <= 0 {
		return 0
	}
	f := 1 - math.Exp(-elapsed.Seconds()/expected.Seconds())
	return math.Min(f, maxEstimate)
}

// Track calls report with an Estimate every interval until the returned
// stop function is called. stop waits for the ticker goroutine to exit.
func Track(expected, interval time.Duration, report func(float64)) (stop func()) {
	start := time.Now()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				report(Estimate(time.Since(start), expected))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
