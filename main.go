// The main package for the courtharvest executable.
package main

import (
	"github.com/ngmonitor/courtharvest/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
