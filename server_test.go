package railtracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitviz/railtracker/animation"
	"github.com/transitviz/railtracker/config"
	"github.com/transitviz/railtracker/feed"
	"github.com/transitviz/railtracker/geometry"
	"github.com/transitviz/railtracker/track"
)

type stubFollower struct {
	result *feed.FollowResult
	err    error
}

func (s *stubFollower) Follow(ctx context.Context, rn string) (*feed.FollowResult, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, follower Follower, geojsonPath string) (*Server, *animation.Fleet) {
	t.Helper()
	net := track.NewNetwork([]geometry.Segment{
		{Line: "red", Points: []geometry.Point{{0, 0}, {2, 0}}},
	})
	fleet := animation.NewFleet(map[string]*track.Network{"red": net}, animation.DefaultTuning(), nil)
	srv := NewServer(config.ServerConfig{Port: 0}, fleet, follower, geojsonPath, nil)
	return srv, fleet
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestTrainsEndpointReturnsFleetSnapshot(t *testing.T) {
	srv, fleet := newTestServer(t, nil, "")
	fleet.ApplyUpdate([]feed.Train{
		{Line: "red", RunNumber: "831", DestName: "Howard", Lon: 0.5, Lat: 0, Heading: 90},
	}, time.Now())

	rec := doGet(t, srv.Handler(), "/api/trains")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Trains []animation.VehiclePosition `json:"trains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Trains, 1)
	assert.Equal(t, "831", body.Trains[0].ID)
	assert.Equal(t, "red", body.Trains[0].Line)
	assert.InDelta(t, 0.5, body.Trains[0].Lon, 1e-9)
}

func TestTrainsEndpointEmptyFleet(t *testing.T) {
	srv, _ := newTestServer(t, nil, "")

	rec := doGet(t, srv.Handler(), "/api/trains")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"trains": []}`, rec.Body.String())
}

func TestFollowEndpoint(t *testing.T) {
	follower := &stubFollower{result: &feed.FollowResult{ETAs: []feed.ETA{
		{StationName: "Belmont", Line: "red", DestName: "Howard"},
	}}}
	srv, _ := newTestServer(t, follower, "")

	rec := doGet(t, srv.Handler(), "/api/train/831")
	require.Equal(t, http.StatusOK, rec.Code)

	var result feed.FollowResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.ETAs, 1)
	assert.Equal(t, "Belmont", result.ETAs[0].StationName)
}

func TestFollowEndpointRejectsNonNumericRun(t *testing.T) {
	srv, _ := newTestServer(t, &stubFollower{}, "")

	for _, rn := range []string{"abc", "83x", "8-31"} {
		rec := doGet(t, srv.Handler(), "/api/train/"+rn)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rn)
	}
}

func TestFollowEndpointWithoutFollower(t *testing.T) {
	srv, _ := newTestServer(t, nil, "")

	rec := doGet(t, srv.Handler(), "/api/train/831")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowEndpointUpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubFollower{err: fmt.Errorf("upstream down")}, "")

	rec := doGet(t, srv.Handler(), "/api/train/831")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to fetch train details", resp.Error)
}

func TestGeoJSONEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.geojson")
	doc := `{"type": "FeatureCollection", "features": []}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	srv, _ := newTestServer(t, nil, path)

	rec := doGet(t, srv.Handler(), "/api/geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, doc, rec.Body.String())

	srvMissing, _ := newTestServer(t, nil, filepath.Join(t.TempDir(), "absent.geojson"))
	rec = doGet(t, srvMissing.Handler(), "/api/geojson")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, fleet := newTestServer(t, nil, "")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fleet.ApplyUpdate([]feed.Train{
		{Line: "red", RunNumber: "831", Lon: 0.5, Lat: 0, Heading: 90},
	}, now)

	rec := doGet(t, srv.Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Vehicles)
	assert.Equal(t, now.Unix(), resp.LastRefreshEpoch)
}
