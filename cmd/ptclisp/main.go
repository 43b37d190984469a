package main

import (
	"os"

	"github.com/andreasronge/ptclisp/cmd/ptclisp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
