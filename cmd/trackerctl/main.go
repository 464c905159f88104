package main

import (
	"os"

	"github.com/wikimedia/wikimedia-cz-tracker/cmd/trackerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
