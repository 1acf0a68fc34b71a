package ws

import (
	_ "embed"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Inbound message types.
const (
	TypeTrack     = "track"
	TypeUntrack   = "untrack"
	TypeTyping    = "typing"
	TypeHeartbeat = "heartbeat"
)

// Outbound message types.
const (
	TypePresenceSync  = "presence_sync"
	TypePresenceJoin  = "presence_join"
	TypePresenceLeave = "presence_leave"
	TypeEvent         = "event"
	TypeError         = "error"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Typing bool   `json:"typing,omitempty"`
}

// Member is one tracked player. A player connected from several tabs is a
// single member with several connection ids.
type Member struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Typing   bool     `json:"typing"`
	ConnIDs  []string `json:"conn_ids"`
}

type PresenceSync struct {
	Type    string   `json:"type"`
	Members []Member `json:"members"`
}

type PresenceJoin struct {
	Type   string `json:"type"`
	Member Member `json:"member"`
}

type PresenceLeave struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

type EventMessage struct {
	Type     string `json:"type"`
	EventID  string `json:"event_id,omitempty"`
	Event    string `json:"event"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

//go:embed presence.schema.json
var schemaJSON string

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("presence.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("presence.schema.json")
}
