package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDebouncer_BurstDeliversLastValueOnce(t *testing.T) {
	rec := &recorder{}
	d := New(30*time.Millisecond, rec.record)

	for _, v := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		d.Trigger(v)
		time.Sleep(5 * time.Millisecond)
	}
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("no call expected during the burst, got %v", got)
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	time.Sleep(60 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != "Hello" {
		t.Fatalf("expected single call with last value, got %v", got)
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after delivery")
	}
}

func TestDebouncer_SeparateBurstsDeliverSeparately(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("first")
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	d.Trigger("second")
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 })

	got := rec.snapshot()
	if got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected calls %v", got)
	}
}

func TestDebouncer_TriggerAtWindowBoundaryIsNotDropped(t *testing.T) {
	for i := 0; i < 20; i++ {
		rec := &recorder{}
		wait := 10 * time.Millisecond
		d := New(wait, rec.record)

		d.Trigger("a")
		time.Sleep(wait)
		d.Trigger("b")

		waitFor(t, func() bool {
			got := rec.snapshot()
			return len(got) > 0 && got[len(got)-1] == "b"
		})
		got := rec.snapshot()
		if len(got) > 2 {
			t.Fatalf("iteration %d: too many calls %v", i, got)
		}
		if len(got) == 2 && got[0] != "a" {
			t.Fatalf("iteration %d: unexpected order %v", i, got)
		}
	}
}

func TestDebouncer_CallsAreSerialized(t *testing.T) {
	var inFlight, maxInFlight, calls int32
	d := New(time.Millisecond, func(int) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&calls, 1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		d.Trigger(i)
		time.Sleep(3 * time.Millisecond)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Flush()
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return !d.Pending() && atomic.LoadInt32(&inFlight) == 0 })

	if atomic.LoadInt32(&maxInFlight) != 1 {
		t.Fatalf("expected at most one call in flight, got %d", maxInFlight)
	}
	if atomic.LoadInt32(&calls) == 0 {
		t.Fatalf("expected at least one call")
	}
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.record)

	d.Trigger("draft")
	if !d.Pending() {
		t.Fatalf("expected pending value")
	}
	d.Flush()
	if got := rec.snapshot(); len(got) != 1 || got[0] != "draft" {
		t.Fatalf("expected flush to deliver immediately, got %v", got)
	}
	d.Flush()
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("flush with nothing pending must not call, got %v", got)
	}

	d.Trigger("discard me")
	d.Stop()
	if d.Pending() {
		t.Fatalf("stop must clear pending value")
	}
	d.Flush()
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("stopped value must never be delivered, got %v", got)
	}
}
