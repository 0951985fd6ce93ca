//go:build tools

package tools

// This file tracks tool dependencies for reproducible builds.
// The goose CLI applies migrations/*.sql by hand when MIGRATE_ON_START is off.

import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
