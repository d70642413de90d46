/*
Package game
File: scheduler.go
Description:
    A small scheduler capability so the engine's periodic work (decay ticks,
    day boundaries) can be driven by wall-clock tickers in production and by
    hand in tests.
*/

package game

import (
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned stop function is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickScheduler is the production scheduler, backed by time.Ticker.
type TickScheduler struct{}

// Every starts a ticker goroutine. The stop function is idempotent and
// permanently cancels the job.
func (TickScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
