// Package evaluation runs the slot-offer KPI pipeline over recordings.
//
// Responsibilities: per-recording orchestration (trigger detection,
// association at each trigger, classification, rate aggregation), the
// mapping from KPIConfig to engine parameters, and a fail-isolated batch
// runner that keeps going when one recording fails.
// Key types: Params, Result, Evaluation, Runner, BatchResult.
//
// Everything here is single-threaded and deterministic: frames are
// visited in timestamp order and scanned slots in channel order.
package evaluation
