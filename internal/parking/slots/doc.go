// Package slots holds the parking-slot data model shared by the trigger,
// association and classification stages.
//
// Key types: GroundTruthSlot, ScannedSlot, ScenarioCode, Pose.
package slots
