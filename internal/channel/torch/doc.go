// Package torch strobes the device light in step with the signal pattern.
//
// Access to the light goes through a camera-like surface: a stream is opened
// for the rear camera, its track reports whether it can drive a torch, and
// constraints switch the torch on or off. Access may be granted long after it
// was requested, so every pulse carries the session it was issued for and is
// dropped if that session ended in the meantime.
package torch
