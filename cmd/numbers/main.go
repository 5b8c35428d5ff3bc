package main

import (
	"fmt"
	"numbers_backend/internal/app"
	"os"
)

func main() {
	if err := app.NewApp().Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
