package points

import "sync"

// WriteRecord is one recorded output write.
type WriteRecord struct {
	PointID string
	Value   bool
}

// FakeStore is a test double implementing Reader and Writer. Values are set
// by the test; absent points read as unavailable. Writes are recorded for
// assertions.
type FakeStore struct {
	mu sync.Mutex

	values map[string]float64

	// Writes contains every write in order.
	Writes []WriteRecord

	// WriteError, if set, is returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]float64)}
}

// Set makes a point readable with the given value.
func (f *FakeStore) Set(pointID string, value float64) {
	f.mu.Lock()
	f.values[pointID] = value
	f.mu.Unlock()
}

// SetBool sets a digital point from a boolean.
func (f *FakeStore) SetBool(pointID string, on bool) {
	v := 0.0
	if on {
		v = 1
	}
	f.Set(pointID, v)
}

// Unset makes a point unavailable.
func (f *FakeStore) Unset(pointID string) {
	f.mu.Lock()
	delete(f.values, pointID)
	f.mu.Unlock()
}

// Read returns the scripted value, or ok=false for unknown points.
func (f *FakeStore) Read(pointID string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[pointID]
	return v, ok
}

// Write records the write. The written value also becomes readable, so tests
// can chain rules through the fake store.
func (f *FakeStore) Write(pointID string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, WriteRecord{PointID: pointID, Value: value})
	v := 0.0
	if value {
		v = 1
	}
	f.values[pointID] = v
	return nil
}

// LastWrite returns the most recent write, if any.
func (f *FakeStore) LastWrite() (WriteRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Writes) == 0 {
		return WriteRecord{}, false
	}
	return f.Writes[len(f.Writes)-1], true
}

// WriteCount returns the number of recorded writes.
func (f *FakeStore) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// Close marks the store as closed.
func (f *FakeStore) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
