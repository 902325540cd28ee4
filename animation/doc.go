// Package animation owns per-vehicle motion state between feed refreshes.
//
// Each refresh snaps the authoritative samples onto the track and decides,
// per vehicle, whether to blend toward the new position along the track
// (a bounded-duration correction plan) or to snap instantly when the gap
// is implausible. Between refreshes a frame tick advances every vehicle
// with the track walker so rendered motion always follows the geometry.
//
// Vehicles that drop out of the feed near a terminus coast toward the
// nearest dead end before removal; vehicles that drop out mid-route are
// treated as feed noise and removed immediately.
//
// State is an explicit tag (Fresh, Correcting, Settled, Retiring, Removed)
// with the correction plan and retirement target as state-specific
// payloads, so invalid combinations cannot be represented.
package animation
