package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func vehicleEntity(id, label, route string, lat, lon, bearing float32) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfs.VehiclePosition{
			Trip: &gtfs.TripDescriptor{
				RouteId:     proto.String(route),
				DirectionId: proto.Uint32(1),
			},
			Vehicle: &gtfs.VehicleDescriptor{
				Id:    proto.String(id),
				Label: proto.String(label),
			},
			Position: &gtfs.Position{
				Latitude:  proto.Float32(lat),
				Longitude: proto.Float32(lon),
				Bearing:   proto.Float32(bearing),
			},
		},
	}
}

func serveFeed(t *testing.T, fm *gtfs.FeedMessage) *RealtimeSource {
	t.Helper()
	body, err := proto.Marshal(fm)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return NewRealtimeSource(srv.URL, 2*time.Second)
}

func TestRealtimePositionsDecodesVehicles(t *testing.T) {
	fm := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfs.FeedEntity{
			vehicleEntity("veh-1", "831", "red", 41.93912, -87.65338, 358),
			// Alert-only entity with no vehicle payload.
			{Id: proto.String("alert-1")},
		},
	}

	trains, err := serveFeed(t, fm).Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, trains, 1)

	tr := trains[0]
	assert.Equal(t, "red", tr.Line)
	assert.Equal(t, "831", tr.RunNumber)
	assert.Equal(t, "1", tr.Direction)
	assert.InDelta(t, 41.93912, tr.Lat, 1e-4)
	assert.InDelta(t, -87.65338, tr.Lon, 1e-4)
	assert.InDelta(t, 358.0, tr.Heading, 1e-4)
}

func TestRealtimePositionsLabelFallsBackToID(t *testing.T) {
	ent := vehicleEntity("veh-7", "", "blue", 41.9, -87.7, 90)
	ent.Vehicle.Vehicle.Label = nil
	fm := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfs.FeedEntity{ent},
	}

	trains, err := serveFeed(t, fm).Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, trains, 1)
	assert.Equal(t, "veh-7", trains[0].RunNumber)
}

func TestRealtimePositionsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewRealtimeSource(srv.URL, time.Second).Positions(context.Background())
	assert.Error(t, err)
}

func TestRealtimePositionsGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a protobuf at all, definitely json {"))
	}))
	t.Cleanup(srv.Close)

	_, err := NewRealtimeSource(srv.URL, time.Second).Positions(context.Background())
	assert.Error(t, err)
}
