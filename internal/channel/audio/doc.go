// Package audio plays the SOS siren: a sine oscillator whose pitch sweeps
// low, high, low over a fixed period, re-triggered for as long as the alert is
// active. The siren does not follow the Morse pattern.
//
// Oscillators are single-use. Stop releases them and the next Start builds a
// fresh oscillator and gain pair on the shared, lazily created output Context.
package audio
