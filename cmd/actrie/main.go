// actrie matches dictionaries of keywords and bounded-gap patterns against
// text.
package main

import (
	"os"

	"github.com/coregx/actrie/cmd/actrie/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
