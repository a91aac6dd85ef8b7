// Package geometry owns the planar primitives used to score parking-slot
// detections against ground truth.
//
// Responsibilities: polygon validation, clipping and overlap
// percentage, centroids, horizontal-edge orientation, the discretised
// rectangle-fit rotation search, and centre-distance decomposition into
// slot-local axes.
// Key types: Polygon, SlotType, GeometryError.
//
// Frame convention: the x axis is lateral to the ego driving path and the
// y axis is longitudinal, so a slot's "horizontal" edges are the ones the
// vehicle crosses while passing it.
//
// No I/O and no logging happen in this package; callers decide whether a
// GeometryError is fatal.
package geometry
