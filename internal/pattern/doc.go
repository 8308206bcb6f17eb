// Package pattern implements the Pattern Clock: a timed step sequencer that
// walks an alert.Pattern forever, reporting the level of every step it enters,
// until it is cancelled.
package pattern
