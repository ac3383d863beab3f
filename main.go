package main

import (
	"os"

	"github.com/emolog/emolog/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
