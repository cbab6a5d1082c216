package main

import (
	"os"

	"grimm.is/setsync/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
