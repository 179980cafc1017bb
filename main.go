package main

import (
	"os"

	"github.com/labfleet/labfleet/cmd"
	"github.com/labfleet/labfleet/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
