// Package classify scores associations against ground truth and labels
// every evaluated ground-truth id.
//
// Responsibilities: the per-association metrics (overlap, orientation
// difference, type match, centre distances, vehicle fit), the acceptance
// rule, and explicit result records keyed by ground-truth id and
// timestamp.
// Key types: Params, Result, Key, Skip, Classifier.
//
// An association passing every criterion is TP, otherwise FP. A
// ground-truth id without an association is FN. Results are created once
// and never mutated.
package classify
