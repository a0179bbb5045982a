package main

import (
	_ "embed"
	"strings"

	"photocleaner/cmd"
)

//go:embed VERSION
var embeddedVersion string

// VERSION fills in cmd.Version unless it was set with -ldflags "-X photocleaner/cmd.Version=...".
func init() {
	if v := strings.TrimSpace(embeddedVersion); v != "" && cmd.Version == "dev" {
		cmd.Version = v
	}
	cmd.ApplyVersion()
}
