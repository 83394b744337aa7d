package points

import (
	"errors"
	"testing"
	"time"
)

func TestFakeStoreReadWrite(t *testing.T) {
	f := NewFakeStore()

	if _, ok := f.Read("p1"); ok {
		t.Error("unknown point should be unavailable")
	}

	f.Set("p1", 42.5)
	v, ok := f.Read("p1")
	if !ok || v != 42.5 {
		t.Errorf("expected 42.5, got %v ok=%v", v, ok)
	}

	f.Unset("p1")
	if _, ok := f.Read("p1"); ok {
		t.Error("unset point should be unavailable")
	}

	if err := f.Write("out", true); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, ok := f.LastWrite()
	if !ok || w.PointID != "out" || !w.Value {
		t.Errorf("unexpected last write: %+v ok=%v", w, ok)
	}

	// Written values become readable for chained rules.
	v, ok = f.Read("out")
	if !ok || v != 1 {
		t.Errorf("expected written value readable as 1, got %v ok=%v", v, ok)
	}
}

func TestFakeStoreWriteError(t *testing.T) {
	f := NewFakeStore()
	f.WriteError = errors.New("broker down")

	if err := f.Write("out", true); err == nil {
		t.Error("expected injected write error")
	}
	if f.WriteCount() != 0 {
		t.Error("failed writes must not be recorded")
	}
}

func TestRouterDispatch(t *testing.T) {
	fallback := NewFakeStore()
	routed := NewFakeStore()
	r := NewRouter(fallback, map[string]Writer{"interlock": routed})

	if err := r.Write("interlock", true); err != nil {
		t.Fatalf("routed write: %v", err)
	}
	if err := r.Write("other", false); err != nil {
		t.Fatalf("fallback write: %v", err)
	}

	if routed.WriteCount() != 1 {
		t.Errorf("routed writer should have 1 write, got %d", routed.WriteCount())
	}
	if fallback.WriteCount() != 1 {
		t.Errorf("fallback writer should have 1 write, got %d", fallback.WriteCount())
	}

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !routed.Closed || !fallback.Closed {
		t.Error("close must propagate to every writer")
	}
}

func TestPointIDFromTopic(t *testing.T) {
	cases := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"plant/points/p1/value", "p1", true},
		{"plant/points/tank-7.level/value", "tank-7.level", true},
		{"plant/points//value", "", false},
		{"plant/points/a/b/value", "", false},
		{"plant/other/p1/value", "", false},
		{"plant/points/p1/set", "", false},
	}
	for _, c := range cases {
		id, ok := pointIDFromTopic(c.topic)
		if id != c.wantID || ok != c.wantOK {
			t.Errorf("topic %q: got (%q, %v), want (%q, %v)", c.topic, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		payload string
		want    float64
		wantErr bool
	}{
		{"42.5", 42.5, false},
		{" 7 ", 7, false},
		{"-0.25", -0.25, false},
		{"true", 1, false},
		{"OFF", 0, false},
		{"on", 1, false},
		{"", 0, true},
		{"n/a", 0, true},
	}
	for _, c := range cases {
		v, err := parseValue([]byte(c.payload))
		if c.wantErr {
			if err == nil {
				t.Errorf("payload %q: expected error", c.payload)
			}
			continue
		}
		if err != nil {
			t.Errorf("payload %q: %v", c.payload, err)
			continue
		}
		if v != c.want {
			t.Errorf("payload %q: got %v, want %v", c.payload, v, c.want)
		}
	}
}

// fakeMessage implements paho.Message for driving onValue directly.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return true }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTStoreStaleness(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &MQTTStore{
		staleness: 30 * time.Second,
		now:       func() time.Time { return now },
		readings:  make(map[string]reading),
	}

	s.onValue(nil, fakeMessage{topic: "plant/points/p1/value", payload: []byte("55")})

	v, ok := s.Read("p1")
	if !ok || v != 55 {
		t.Fatalf("fresh reading: got %v ok=%v", v, ok)
	}

	now = now.Add(30 * time.Second)
	if _, ok := s.Read("p1"); !ok {
		t.Error("reading at exactly the staleness window should still be usable")
	}

	now = now.Add(time.Second)
	if _, ok := s.Read("p1"); ok {
		t.Error("reading older than the staleness window must be unavailable")
	}

	// A new report makes the point fresh again.
	s.onValue(nil, fakeMessage{topic: "plant/points/p1/value", payload: []byte("56")})
	v, ok = s.Read("p1")
	if !ok || v != 56 {
		t.Errorf("refreshed reading: got %v ok=%v", v, ok)
	}
}

func TestMQTTStoreIgnoresBadPayloads(t *testing.T) {
	s := &MQTTStore{now: time.Now, readings: make(map[string]reading)}

	s.onValue(nil, fakeMessage{topic: "plant/points/p1/value", payload: []byte("bogus")})
	if _, ok := s.Read("p1"); ok {
		t.Error("unparseable payload must not produce a reading")
	}

	s.onValue(nil, fakeMessage{topic: "plant/points/p1/other", payload: []byte("1")})
	if _, ok := s.Read("p1"); ok {
		t.Error("foreign topic must not produce a reading")
	}
}
