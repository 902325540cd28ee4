package track_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitviz/railtracker/geometry"
	"github.com/transitviz/railtracker/track"
)

func seg(line string, pts ...geometry.Point) geometry.Segment {
	return geometry.Segment{Line: line, Points: pts}
}

// twoEdgeNetwork is the canonical connected pair: two horizontal edges
// meeting at (1,0).
func twoEdgeNetwork() *track.Network {
	return track.NewNetwork([]geometry.Segment{
		seg("red", geometry.Point{0, 0}, geometry.Point{1, 0}),
		seg("red", geometry.Point{1, 0}, geometry.Point{2, 0}),
	})
}

func TestSnapProjectsOntoNearestEdge(t *testing.T) {
	net := twoEdgeNetwork()

	pos := net.Snap(0.5, 0.1)
	require.True(t, pos.Valid())
	assert.Equal(t, 0, pos.Segment)
	assert.Equal(t, 0, pos.Edge)
	assert.InDelta(t, 0.5, pos.Lon, 1e-12)
	assert.InDelta(t, 0.0, pos.Lat, 1e-12)
	assert.InDelta(t, 0.5, pos.T, 1e-12)
}

func TestSnapClampsBeyondEndpoints(t *testing.T) {
	net := track.NewNetwork([]geometry.Segment{
		seg("red", geometry.Point{0, 0}, geometry.Point{1, 0}),
	})

	tests := []struct {
		name     string
		lon, lat float64
		wantLon  float64
		wantT    float64
	}{
		{"before start", -0.5, 0.2, 0, 0},
		{"past end", 1.7, -0.3, 1, 1},
		{"mid perpendicular", 0.25, 5, 0.25, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := net.Snap(tt.lon, tt.lat)
			assert.InDelta(t, tt.wantLon, pos.Lon, 1e-12)
			assert.InDelta(t, 0.0, pos.Lat, 1e-12)
			assert.InDelta(t, tt.wantT, pos.T, 1e-12)
		})
	}
}

func TestSnapEmptyNetworkReturnsNoPosition(t *testing.T) {
	net := track.NewNetwork(nil)

	pos := net.Snap(-87.6, 41.8)
	assert.False(t, pos.Valid())
	assert.Equal(t, -87.6, pos.Lon)
	assert.Equal(t, 41.8, pos.Lat)
}

func TestSnapPicksNearerSegment(t *testing.T) {
	net := track.NewNetwork([]geometry.Segment{
		seg("red", geometry.Point{0, 0}, geometry.Point{1, 0}),
		seg("red", geometry.Point{0, 1}, geometry.Point{1, 1}),
	})

	pos := net.Snap(0.5, 0.9)
	assert.Equal(t, 1, pos.Segment)
	assert.InDelta(t, 1.0, pos.Lat, 1e-12)
}

func TestDirectionFromHeading(t *testing.T) {
	net := twoEdgeNetwork()
	pos := net.Snap(0.5, 0)

	tests := []struct {
		name    string
		heading float64
		want    int
	}{
		{"east on eastbound edge", 90, 1},
		{"west on eastbound edge", 270, -1},
		{"northeast leans forward", 45, 1},
		{"southwest leans backward", 225, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, net.DirectionFromHeading(pos, tt.heading))
		})
	}
}
