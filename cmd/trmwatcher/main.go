package main

import (
	"github.com/distrobmj-cmd/julianarbitraje/internal/cli"
)

func main() {
	cli.Execute()
}
