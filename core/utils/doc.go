// Package utils provides common helpers shared by the quest-voice packages:
// conversion of raw database scan values, atomic file writes and path segment
// sanitizing for zone directory names.
package utils
