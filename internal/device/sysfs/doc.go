// Package sysfs drives a flash LED through the Linux LED class interface
// (/sys/class/leds/<name>/brightness) and exposes it as a torch camera.
package sysfs
