package main

import (
	"os"

	"github.com/deskops/sla-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
