// Package feed acquires live vehicle samples for the position engine.
//
// Two sources are provided behind one interface: a Train Tracker style
// JSON API client (per-route positions plus a follow call for a single
// run's ETAs) and a GTFS-RT VehiclePositions feed. Both produce the same
// already-parsed numeric samples; the engine never sees raw feed text.
//
// The Train Tracker API has well-known quirks the client absorbs: fields
// that should be arrays arrive as single objects when there is one element,
// and numeric fields arrive as strings. Samples are coerced, not validated.
package feed
