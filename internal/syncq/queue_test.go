package syncq

import (
	"encoding/json"
	"testing"
)

func TestPushLoadSave(t *testing.T) {
	t.Setenv("FSIM_HOME", t.TempDir())

	got, err := Load()
	if err != nil || len(got) != 0 {
		t.Fatalf("empty load got=%v err=%v", got, err)
	}
	first := Command{Method: "POST", Path: "/v1/sessions/a/advance", Body: json.RawMessage(`{"days":1}`), IdempotencyKey: "k1"}
	if err := Push(first); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := Push(first); err != nil {
		t.Fatalf("push duplicate: %v", err)
	}
	if err := Push(Command{Method: "POST", Path: "/v1/sessions/a/rest", IdempotencyKey: "k2"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	got, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].IdempotencyKey != "k1" {
		t.Fatalf("queue=%+v", got)
	}
	var body struct {
		Days int `json:"days"`
	}
	if err := json.Unmarshal(got[0].Body, &body); err != nil || body.Days != 1 {
		t.Fatalf("body=%s err=%v", got[0].Body, err)
	}

	if err := Save(got[1:]); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = Load()
	if len(got) != 1 || got[0].IdempotencyKey != "k2" {
		t.Fatalf("after save=%+v", got)
	}
	if err := Save(nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = Load()
	if len(got) != 0 {
		t.Fatalf("after clear=%+v", got)
	}
}
