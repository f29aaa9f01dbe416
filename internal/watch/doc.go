// Package watch re-runs the filter pipeline when pool files, selection
// files or the config file change. Bursts of file events are coalesced by
// a debouncer before each run.
package watch
