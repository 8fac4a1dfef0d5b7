// Command memsim drives a discrete-event simulation of a virtual
// memory subsystem against a CSV access trace.
package main

import "github.com/archlab/memsim/cmd/memsim/cmd"

func main() {
	cmd.Execute()
}
