package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client fetches train positions from a Train Tracker style JSON API,
// one request per route, all routes in parallel. Routes that fail or come
// back with an upstream error code contribute an empty batch; partial
// results are normal operation, not an error.
type Client struct {
	positionsURL string
	followURL    string
	key          string
	routes       []string
	httpClient   *http.Client
	log          *logrus.Entry
}

// NewClient creates a positions client. followURL may be empty when the
// deployment has no follow endpoint.
func NewClient(positionsURL, followURL, key string, routes []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		positionsURL: positionsURL,
		followURL:    followURL,
		key:          key,
		routes:       routes,
		httpClient:   &http.Client{Timeout: timeout},
		log:          logrus.WithField("component", "feed"),
	}
}

// Positions fetches every configured route in parallel and returns the
// flattened sample set.
func (c *Client) Positions(ctx context.Context) ([]Train, error) {
	if len(c.routes) == 0 {
		return nil, fmt.Errorf("no routes configured")
	}

	var (
		mu     sync.Mutex
		trains []Train
		wg     sync.WaitGroup
	)
	for _, route := range c.routes {
		wg.Add(1)
		go func(route string) {
			defer wg.Done()
			batch, err := c.fetchRoute(ctx, route)
			if err != nil {
				c.log.WithField("route", route).WithError(err).Warn("route fetch failed")
				return
			}
			mu.Lock()
			trains = append(trains, batch...)
			mu.Unlock()
		}(route)
	}
	wg.Wait()
	return trains, nil
}

func (c *Client) fetchRoute(ctx context.Context, route string) ([]Train, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("rt", route)
	q.Set("outputType", "JSON")

	body, err := c.get(ctx, c.positionsURL, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Ctatt struct {
			ErrCd any             `json:"errCd"`
			ErrNm any             `json:"errNm"`
			Route json.RawMessage `json:"route"`
		} `json:"ctatt"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode positions response: %w", err)
	}
	if code := toString(envelope.Ctatt.ErrCd); code != "0" {
		return nil, fmt.Errorf("upstream error %s: %s", code, toString(envelope.Ctatt.ErrNm))
	}

	var trains []Train
	for _, rawRoute := range asArray(envelope.Ctatt.Route) {
		var r struct {
			Train json.RawMessage `json:"train"`
		}
		if err := json.Unmarshal(rawRoute, &r); err != nil {
			continue
		}
		for _, rawTrain := range asArray(r.Train) {
			t, ok := decodeTrain(rawTrain)
			if !ok {
				continue
			}
			// The feed does not echo the route; tag it the way the
			// request asked for it.
			t.Line = route
			trains = append(trains, t)
		}
	}
	return trains, nil
}

// Follow returns the upcoming ETAs for a single run.
func (c *Client) Follow(ctx context.Context, runNumber string) (*FollowResult, error) {
	if c.followURL == "" {
		return nil, fmt.Errorf("follow endpoint not configured")
	}

	q := url.Values{}
	q.Set("key", c.key)
	q.Set("runnumber", runNumber)
	q.Set("outputType", "JSON")

	body, err := c.get(ctx, c.followURL, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Ctatt struct {
			ErrCd    any             `json:"errCd"`
			Eta      json.RawMessage `json:"eta"`
			Position json.RawMessage `json:"position"`
		} `json:"ctatt"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode follow response: %w", err)
	}

	result := &FollowResult{ETAs: []ETA{}}
	if toString(envelope.Ctatt.ErrCd) != "0" {
		return result, nil
	}
	for _, rawETA := range asArray(envelope.Ctatt.Eta) {
		var fields map[string]any
		if err := json.Unmarshal(rawETA, &fields); err != nil {
			continue
		}
		result.ETAs = append(result.ETAs, ETA{
			StationID:   toString(fields["staId"]),
			StationName: toString(fields["staNm"]),
			StopDesc:    toString(fields["stpDe"]),
			Line:        toString(fields["rt"]),
			DestName:    toString(fields["destNm"]),
			Predicted:   toString(fields["prdt"]),
			Arrival:     toString(fields["arrT"]),
			Approaching: toBool(fields["isApp"]),
			Delayed:     toBool(fields["isDly"]),
		})
	}
	if len(envelope.Ctatt.Position) > 0 {
		if t, ok := decodeTrain(envelope.Ctatt.Position); ok {
			result.Position = &t
		}
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, base string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, base)
	}
	return io.ReadAll(resp.Body)
}

// decodeTrain coerces one train object out of the loosely typed upstream
// JSON. Samples without a usable coordinate are dropped.
func decodeTrain(raw json.RawMessage) (Train, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Train{}, false
	}
	t := Train{
		RunNumber:   toString(fields["rn"]),
		DestName:    toString(fields["destNm"]),
		Direction:   toString(fields["trDr"]),
		NextStation: toString(fields["nextStaNm"]),
		Predicted:   toString(fields["prdt"]),
		Arrival:     toString(fields["arrT"]),
		Lat:         toFloat(fields["lat"]),
		Lon:         toFloat(fields["lon"]),
		Heading:     toFloat(fields["heading"]),
		Approaching: toBool(fields["isApp"]),
		Delayed:     toBool(fields["isDly"]),
	}
	if t.RunNumber == "" || (t.Lat == 0 && t.Lon == 0) {
		return Train{}, false
	}
	return t, true
}
