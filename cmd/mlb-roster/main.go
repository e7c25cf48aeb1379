// Command mlb-roster serves the roster relay and browses the aggregated
// player list from the terminal.
package main

import "github.com/Sternrassler/mlb-roster-client/cmd/mlb-roster/cmd"

func main() {
	cmd.Execute()
}
