// Command worldstate tracks and validates character world state.
package main

import "github.com/mesh-intelligence/worldstate/internal/cli"

func main() {
	cli.Execute()
}
