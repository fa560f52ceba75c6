package main

import (
	"fedsearch/internal/cli"
	_ "fedsearch/internal/search/catalog"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
