package cli

import (
	"time"

	"dashquery/internal/app"
	"dashquery/internal/schema"
)

// now is the clock date presets resolve against; tests replace it.
var now = time.Now

func loadRegistry(dir string) (*schema.Registry, error) {
	return app.LoadRegistry(dir)
}
