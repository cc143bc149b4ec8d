package main

import (
	"os"

	"github.com/lvcoi/ytpp/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
