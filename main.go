// Package main is the entry point for the Parent Portal client.
package main

import (
	"parentportal/cli/cmd"
)

func main() {
	cmd.Execute()
}
