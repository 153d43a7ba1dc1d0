package chrono

import "time"

// API is the interface that anything depending on wall-clock time or on
// waiting should use, so that delays can be observed in tests.
type API interface {
	Now() time.Time
	// Sleep blocks for `d`, it is intentionally not cancellable.
	Sleep(d time.Duration)
}

type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

func (StandardImpl) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// FakeImpl is an API that never blocks, it records every requested sleep and
// advances its own clock by it.
type FakeImpl struct {
	Current time.Time
	Slept   []time.Duration
}

func (f *FakeImpl) Now() time.Time {
	return f.Current
}

func (f *FakeImpl) Sleep(d time.Duration) {
	f.Slept = append(f.Slept, d)
	f.Current = f.Current.Add(d)
}
