package main

import (
	"os"

	"github.com/ZahirOuma/Excellia-FrontEnd/cmd"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
