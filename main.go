package main

import (
	"os"

	"github.com/packsim/packsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
