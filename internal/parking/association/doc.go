// Package association pairs scanned slots with ground-truth slots.
//
// Responsibilities: a k-d tree over ground-truth centres, one nearest
// query per detected scanned slot, and resolution to a one-to-one mapping
// keyed by ground-truth id.
// Key types: Index, Association, Result, Policy.
//
// Scanned slots are visited in ascending channel index. Under PolicyFirst
// the first association claiming a ground-truth id is kept; under
// PolicyNearest the closest one is kept with ties going to the first.
// Every discarded association is reported as a Conflict.
package association
