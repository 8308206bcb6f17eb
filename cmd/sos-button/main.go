package main

import "github.com/oshokin/sos-beacon/cmd/sos-button/cmd"

func main() {
	cmd.Execute()
}
