package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	drained  int
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained++
	return nil
}

func TestNATSPublisher_PublishesJSONPerInstanceSubject(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "zinc.config.changed")

	evt := NewConfigChanged(ActionFieldReset, "inst-1")
	evt.Field = "tonePreset"
	if err := p.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(fc.subjects) != 1 || fc.subjects[0] != "zinc.config.changed.inst-1" {
		t.Fatalf("subjects = %v, want [zinc.config.changed.inst-1]", fc.subjects)
	}
	var got ConfigChanged
	if err := json.Unmarshal(fc.payloads[0], &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.ID != evt.ID || got.Action != ActionFieldReset || got.Field != "tonePreset" {
		t.Errorf("decoded event = %+v, want %+v", got, evt)
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "s")

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	p.Close()
	if fc.drained != 1 {
		t.Errorf("Drain() called %d times, want 1", fc.drained)
	}
	if err := p.Publish(context.Background(), NewConfigChanged(ActionSaved, "i")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
}

func TestMemoryPublisher_RecordsInOrder(t *testing.T) {
	p := &MemoryPublisher{}
	p.Publish(context.Background(), NewConfigChanged(ActionSaved, "a"))
	p.Publish(context.Background(), NewConfigChanged(ActionAllReset, "b"))

	got := p.Events()
	if len(got) != 2 || got[0].InstanceID != "a" || got[1].Action != ActionAllReset {
		t.Errorf("Events() = %+v, want [saved a, all_reset b]", got)
	}
}
