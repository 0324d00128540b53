package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recordingSink struct {
	entries []Entry
	err     error
}

func (r *recordingSink) Record(_ context.Context, e Entry) error {
	r.entries = append(r.entries, e)
	return r.err
}

func TestFanout_RecordsToEverySinkAndJoinsErrors(t *testing.T) {
	down := errors.New("broker down")
	ok, failing := &recordingSink{}, &recordingSink{err: down}

	err := Fanout{failing, ok}.Record(context.Background(), Entry{Action: ActionCreateOrder})
	if !errors.Is(err, down) {
		t.Fatalf("err=%v, want joined sink error", err)
	}
	if len(ok.entries) != 1 || len(failing.entries) != 1 {
		t.Fatalf("a failing sink must not stop the others")
	}
}

type fakeWriter struct{ msgs []kafka.Message }

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaSink_KeysByEntity(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{w: w}
	e := Entry{ID: "a1", UserID: "u1", Action: ActionProcessPayment, EntityKind: EntityOrder, EntityID: "o1", CreatedAt: time.Now()}

	if err := s.Record(context.Background(), e); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "o1" {
		t.Fatalf("msgs=%+v", w.msgs)
	}
	var got Entry
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Action != ActionProcessPayment || got.EntityID != "o1" {
		t.Fatalf("got=%+v", got)
	}
}
