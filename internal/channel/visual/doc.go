// Package visual drives the full-screen flash overlay.
package visual
