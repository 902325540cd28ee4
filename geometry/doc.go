// Package geometry models the rail network as a collection of polyline
// segments and indexes them per line.
//
// A Segment is one continuous stretch of drawn track. Segments carry a
// primary line identifier plus the list of other lines that run over the
// same trackage, so a line's animable geometry is the concatenation of
// its own segments and every segment shared with it.
//
// The package ingests the network from a GeoJSON FeatureCollection of
// LineString/MultiLineString features and does no distance computation
// itself; snapping and walking live in the track package.
package geometry
