package feed

import (
	"context"
	"encoding/json"
	"strconv"
)

// Train is one vehicle sample as delivered by a position feed.
type Train struct {
	Line        string  `json:"line"`
	RunNumber   string  `json:"rn"`
	DestName    string  `json:"destNm"`
	Direction   string  `json:"trDr"`
	NextStation string  `json:"nextStaNm"`
	Predicted   string  `json:"prdt"`
	Arrival     string  `json:"arrT"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Heading     float64 `json:"heading"`
	Approaching bool    `json:"isApp"`
	Delayed     bool    `json:"isDly"`
}

// Key identifies the vehicle across refreshes.
func (t Train) Key() string { return t.Line + ":" + t.RunNumber }

// ETA is one predicted arrival from a follow call.
type ETA struct {
	StationID   string `json:"staId"`
	StationName string `json:"staNm"`
	StopDesc    string `json:"stpDe"`
	Line        string `json:"rt"`
	DestName    string `json:"destNm"`
	Predicted   string `json:"prdt"`
	Arrival     string `json:"arrT"`
	Approaching bool   `json:"isApp"`
	Delayed     bool   `json:"isDly"`
}

// FollowResult is the response to a follow call for a single run.
type FollowResult struct {
	ETAs     []ETA  `json:"eta"`
	Position *Train `json:"position,omitempty"`
}

// Source delivers the current fleet sample set.
type Source interface {
	Positions(ctx context.Context) ([]Train, error)
}

// Coercion helpers for the loosely typed upstream JSON.

// asArray normalizes a value that may be a single object or an array of
// objects into a slice.
func asArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return []json.RawMessage{raw}
	}
	return nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	}
	return ""
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || t == "true"
	case float64:
		return t != 0
	}
	return false
}
