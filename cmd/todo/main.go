package main

import (
	"os"

	"github.com/Makepad-fr/tada-board/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
