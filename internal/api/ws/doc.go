// Package ws bridges the alert to a browser over a websocket.
//
// Clients connected to /ws receive an "alert.state" message on connect and on
// every change, and may send "alert.toggle" or "alert.set" to drive the alert.
// GET /state returns the current state as JSON.
package ws
