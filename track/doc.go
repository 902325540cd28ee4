// Package track implements the track-relative position engine: snapping
// raw feed coordinates onto the rail network, walking a snapped position
// along the network by a signed distance across segment joints, and
// estimating along-track distances between two positions.
//
// All geometry is planar lon/lat; network extents are small enough that
// Euclidean math is adequate. Operations never return errors: malformed or
// disconnected geometry degrades to a stopped walk or a straight-line
// distance estimate, never a crash.
package track
