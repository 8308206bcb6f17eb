// Package config defines the beacon settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the control and bridge addresses, logging options and
// the torch and siren tuning.
package config
