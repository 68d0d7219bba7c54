// Command intentctl validates, compares and describes music intents offline
// and replays regression batteries.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
