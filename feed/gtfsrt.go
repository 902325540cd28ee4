package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// RealtimeSource reads vehicle samples from a GTFS-RT VehiclePositions
// feed, for networks that publish protobuf instead of a JSON API.
type RealtimeSource struct {
	url        string
	httpClient *http.Client
}

// NewRealtimeSource creates a GTFS-RT vehicle positions source.
func NewRealtimeSource(url string, timeout time.Duration) *RealtimeSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RealtimeSource{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// Positions fetches and decodes the feed into the common sample type.
// Entities without a position are skipped; a vehicle label falls back to
// the vehicle id when absent.
func (s *RealtimeSource) Positions(ctx context.Context) ([]Train, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var fm gtfs.FeedMessage
	if err := proto.Unmarshal(body, &fm); err != nil {
		return nil, fmt.Errorf("decode vehicle positions: %w", err)
	}

	var trains []Train
	for _, entity := range fm.GetEntity() {
		v := entity.GetVehicle()
		if v == nil || v.GetPosition() == nil {
			continue
		}
		pos := v.GetPosition()
		rn := v.GetVehicle().GetLabel()
		if rn == "" {
			rn = v.GetVehicle().GetId()
		}
		if rn == "" {
			rn = entity.GetId()
		}
		trains = append(trains, Train{
			Line:      v.GetTrip().GetRouteId(),
			RunNumber: rn,
			Direction: strconv.Itoa(int(v.GetTrip().GetDirectionId())),
			Lat:       float64(pos.GetLatitude()),
			Lon:       float64(pos.GetLongitude()),
			Heading:   float64(pos.GetBearing()),
		})
	}
	return trains, nil
}
