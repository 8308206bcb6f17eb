// Package speaker adapts the beep speaker to the siren's audio.Context.
//
// The speaker is a process-wide singleton: it is initialised on first use,
// starts suspended and is never initialised again.
package speaker
