package main

import (
	"os"

	"github.com/go-sdb/sdb/cmd/sdb/cmds"
	"github.com/go-sdb/sdb/pkg/version"
)

// Build is the git sha of this binary's source.
var Build string

func main() {
	if Build != "" {
		version.SdbVersion.Build = Build
	}
	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
