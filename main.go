package main

import (
	"os"

	"github.com/gitforge-admin/gitforge-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
