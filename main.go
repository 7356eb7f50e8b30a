package main

import (
	"os"

	"github.com/sadopc/taskonaut/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
