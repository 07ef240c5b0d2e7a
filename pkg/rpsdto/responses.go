package rpsdto

import (
	"encoding/json"
	"fmt"

	"github.com/park285/Cheese-RPS-bot/internal/archive"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
)

// Attribute is one key/value tag of an execute acknowledgement.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response acknowledges a successful execute message.
type Response struct {
	Attributes []Attribute `json:"attributes"`
}

func NewResponse() *Response { return &Response{Attributes: []Attribute{}} }

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the first value stored under key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// GameEntry is an (encoded key, session) pair. It is written as a two-element JSON array.
type GameEntry struct {
	Key  []byte
	Game rps.Session
}

func (g GameEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{g.Key, g.Game})
}

func (g *GameEntry) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("game entry: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &g.Key); err != nil {
		return fmt.Errorf("game entry key: %w", err)
	}
	if err := json.Unmarshal(pair[1], &g.Game); err != nil {
		return fmt.Errorf("game entry session: %w", err)
	}
	return nil
}

// GamesResponse answers QueryHostGames and QueryAllGames.
type GamesResponse struct {
	Games []GameEntry `json:"games"`
}

// HistoryResponse answers QueryHistory.
type HistoryResponse struct {
	Results []archive.Result `json:"results"`
}
