// Package report writes evaluation results to disk: the JSON payload per
// recording and per batch, slot overlay plots and an HTML rate chart.
//
// All output goes through fsutil.FileSystem so that report layouts can be
// tested in memory.
package report
