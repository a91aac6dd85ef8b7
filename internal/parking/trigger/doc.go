// Package trigger finds the moment each parking slot is scanned.
//
// A slot triggers at the first recorded timestamp where its most nearly
// horizontal edge is collinear with one of the two mirror reference points
// of the ego vehicle. That timestamp is the slot's evaluation instant.
// Frames must be fed in chronological order; Detect sorts them stably.
package trigger
