package main

import (
	"os"

	"github.com/hitoshi/recipebox/internal/app"
)

func main() {
	os.Exit(app.Main())
}
