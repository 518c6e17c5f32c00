package main

import (
	"os"

	"github.com/dimitrije/passop-api/cmd/passop-lock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
