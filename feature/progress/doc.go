// Package progress rolls up voicing statistics from the quest catalog and an audio lookup.
//
// All functions are pure: they never mutate their inputs and may be called
// repeatedly for interactive filtering. A quest counts as voiced when both
// genders exist (requireBothGenders) or when any gender exists.
package progress
