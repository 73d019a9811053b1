package main

import (
	"os"

	"github.com/bmordue/webdav-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
