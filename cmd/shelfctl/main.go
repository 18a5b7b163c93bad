// Command shelfctl runs the book to music pipeline from the terminal and
// prints JSON.
package main

import (
	"fmt"
	"os"

	"github.com/ewilliams-labs/shelfsound/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout, config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
