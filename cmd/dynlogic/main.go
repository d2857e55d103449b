package main

import (
	"os"

	"github.com/helioscrm/dynlogic/cmd/dynlogic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
