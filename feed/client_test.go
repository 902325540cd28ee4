package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The upstream API is loosely typed: route and train appear both as single
// objects and as arrays, and numerics arrive as strings.
const positionsRed = `{
  "ctatt": {
    "tmst": "2025-06-01T12:00:00",
    "errCd": "0",
    "errNm": null,
    "route": {
      "@name": "red",
      "train": [
        {
          "rn": "831",
          "destNm": "Howard",
          "trDr": "1",
          "nextStaNm": "Belmont",
          "prdt": "2025-06-01T12:00:10",
          "arrT": "2025-06-01T12:02:10",
          "lat": "41.93912",
          "lon": "-87.65338",
          "heading": "358",
          "isApp": "0",
          "isDly": "0"
        },
        {
          "rn": "834",
          "destNm": "95th/Dan Ryan",
          "lat": 41.85073,
          "lon": -87.63116,
          "heading": 179,
          "isApp": "1",
          "isDly": "0"
        }
      ]
    }
  }
}`

const positionsSingle = `{
  "ctatt": {
    "errCd": "0",
    "route": {
      "@name": "Y",
      "train": {
        "rn": "012",
        "destNm": "Skokie",
        "lat": "42.01985",
        "lon": "-87.75245",
        "heading": "90"
      }
    }
  }
}`

const positionsError = `{
  "ctatt": {
    "errCd": "101",
    "errNm": "Invalid API key"
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/positions", srv.URL+"/follow", "testkey", []string{"red"}, 2*time.Second)
	return c, srv
}

func TestPositionsDecodesStringNumerics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "testkey", r.URL.Query().Get("key"))
		assert.Equal(t, "red", r.URL.Query().Get("rt"))
		_, _ = w.Write([]byte(positionsRed))
	})

	trains, err := c.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, trains, 2)

	byRun := map[string]Train{}
	for _, tr := range trains {
		byRun[tr.RunNumber] = tr
	}

	north := byRun["831"]
	assert.Equal(t, "red", north.Line)
	assert.Equal(t, "red:831", north.Key())
	assert.Equal(t, "Howard", north.DestName)
	assert.InDelta(t, 41.93912, north.Lat, 1e-9)
	assert.InDelta(t, -87.65338, north.Lon, 1e-9)
	assert.InDelta(t, 358.0, north.Heading, 1e-9)
	assert.False(t, north.Approaching)

	south := byRun["834"]
	assert.InDelta(t, 179.0, south.Heading, 1e-9)
	assert.True(t, south.Approaching)
}

func TestPositionsHandlesSingleObjectTrain(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(positionsSingle))
	})

	trains, err := c.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, trains, 1)
	assert.Equal(t, "012", trains[0].RunNumber)
	assert.InDelta(t, -87.75245, trains[0].Lon, 1e-9)
}

func TestPositionsToleratesUpstreamErrorCode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(positionsError))
	})

	// A bad route contributes nothing; partial results are not an error.
	trains, err := c.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trains)
}

func TestPositionsToleratesHTTPFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	trains, err := c.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trains)
}

func TestPositionsNoRoutesConfigured(t *testing.T) {
	c := NewClient("http://example.invalid", "", "k", nil, time.Second)
	_, err := c.Positions(context.Background())
	assert.Error(t, err)
}

func TestFollowDecodesETAs(t *testing.T) {
	const followBody = `{
	  "ctatt": {
	    "errCd": "0",
	    "eta": [
	      {
	        "staId": "41320",
	        "staNm": "Belmont",
	        "stpDe": "Service toward Howard",
	        "rt": "red",
	        "destNm": "Howard",
	        "prdt": "2025-06-01T12:00:10",
	        "arrT": "2025-06-01T12:02:10",
	        "isApp": "0",
	        "isDly": "0"
	      },
	      {
	        "staId": "40540",
	        "staNm": "Addison",
	        "rt": "red",
	        "destNm": "Howard",
	        "isApp": "1",
	        "isDly": "0"
	      }
	    ],
	    "position": {"rn": "831", "lat": "41.93912", "lon": "-87.65338", "heading": "358"}
	  }
	}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "831", r.URL.Query().Get("runnumber"))
		_, _ = w.Write([]byte(followBody))
	})

	result, err := c.Follow(context.Background(), "831")
	require.NoError(t, err)
	require.Len(t, result.ETAs, 2)
	assert.Equal(t, "Belmont", result.ETAs[0].StationName)
	assert.Equal(t, "Service toward Howard", result.ETAs[0].StopDesc)
	assert.True(t, result.ETAs[1].Approaching)
	require.NotNil(t, result.Position)
	assert.InDelta(t, 41.93912, result.Position.Lat, 1e-9)
}

func TestFollowUpstreamErrorReturnsEmptyResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ctatt": {"errCd": "500", "errNm": "No data"}}`))
	})

	result, err := c.Follow(context.Background(), "999")
	require.NoError(t, err)
	assert.Empty(t, result.ETAs)
	assert.Nil(t, result.Position)
}

func TestDecodeTrainDropsUnusableSamples(t *testing.T) {
	_, ok := decodeTrain([]byte(`{"rn": "831"}`))
	assert.False(t, ok, "missing coordinate")

	_, ok = decodeTrain([]byte(`{"lat": "41.9", "lon": "-87.6"}`))
	assert.False(t, ok, "missing run number")

	tr, ok := decodeTrain([]byte(`{"rn": "1", "lat": "41.9", "lon": "-87.6"}`))
	require.True(t, ok)
	assert.InDelta(t, 41.9, tr.Lat, 1e-9)
}

func TestAsArrayShapes(t *testing.T) {
	assert.Nil(t, asArray(nil))
	assert.Nil(t, asArray([]byte(`"scalar"`)))
	assert.Len(t, asArray([]byte(`{"a": 1}`)), 1)
	assert.Len(t, asArray([]byte(`[{"a": 1}, {"b": 2}]`)), 2)
}
