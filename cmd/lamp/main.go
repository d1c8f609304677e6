package main

import (
	"os"

	"github.com/dshills/lamp/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
