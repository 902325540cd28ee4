package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FeatureCollection mirrors the GeoJSON document the network ships as.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature carrying line tags in its properties.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds LineString or MultiLineString coordinates. Coordinates is
// kept raw because the nesting depth depends on the geometry type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseNetwork decodes a GeoJSON FeatureCollection into segments. Features
// that are not line geometries are skipped. Each feature contributes one
// segment per line string; polylines with fewer than two points are dropped.
func ParseNetwork(data []byte) ([]Segment, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse network geojson: %w", err)
	}

	var segs []Segment
	for _, f := range fc.Features {
		line := propString(f.Properties, "line")
		shared := propStrings(f.Properties, "shared")

		var lines [][]Point
		switch f.Geometry.Type {
		case "LineString":
			var pts []Point
			if err := json.Unmarshal(f.Geometry.Coordinates, &pts); err != nil {
				return nil, fmt.Errorf("parse LineString coordinates: %w", err)
			}
			lines = [][]Point{pts}
		case "MultiLineString":
			if err := json.Unmarshal(f.Geometry.Coordinates, &lines); err != nil {
				return nil, fmt.Errorf("parse MultiLineString coordinates: %w", err)
			}
		default:
			continue
		}

		for _, pts := range lines {
			if len(pts) < 2 {
				continue
			}
			segs = append(segs, Segment{Line: line, SharedWith: shared, Points: pts})
		}
	}
	return segs, nil
}

// LoadNetwork reads and parses a network GeoJSON file.
func LoadNetwork(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	return ParseNetwork(data)
}

// propString extracts a string property, tolerating absent keys.
func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// propStrings extracts a list property. Source data is inconsistent here:
// the tag appears both as a JSON array and as a comma-separated string.
func propStrings(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
