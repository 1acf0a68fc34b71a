package ws

import (
	"encoding/json"
	"testing"
)

func TestPresenceSchema(t *testing.T) {
	schema, err := compileSchema()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	valid := []string{
		`{"type":"track"}`,
		`{"type":"track","typing":true}`,
		`{"type":"untrack"}`,
		`{"type":"typing","typing":false}`,
		`{"type":"heartbeat"}`,
	}
	invalid := []string{
		`{}`,
		`{"type":"draw"}`,
		`{"type":"typing"}`,
		`{"type":"track","typing":"yes"}`,
		`{"type":"heartbeat","player_id":"p1"}`,
	}

	for i, s := range valid {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			t.Fatalf("unmarshal sample %d: %v", i, err)
		}
		if err := schema.Validate(v); err != nil {
			t.Fatalf("schema validate sample %d: %v", i, err)
		}
	}
	for i, s := range invalid {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			t.Fatalf("unmarshal sample %d: %v", i, err)
		}
		if err := schema.Validate(v); err == nil {
			t.Fatalf("expected sample %d rejected: %s", i, s)
		}
	}
}
