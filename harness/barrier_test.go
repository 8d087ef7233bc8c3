package harness_test

import (
	"sync"
	"testing"
	"time"

	"github.com/mars-research/kcount/harness"
)

func TestBarrierReleasesAfterBothSidesReady(t *testing.T) {
	b := harness.NewBarrier(2, 3)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			b.ProducerReady()
			b.Wait()
		}()
	}
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			b.ConsumerReady()
			b.Wait()
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("barrier never released all workers")
	}
}
