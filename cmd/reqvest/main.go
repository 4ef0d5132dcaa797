// Command reqvest runs the ticker request bot and its maintenance tools.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
