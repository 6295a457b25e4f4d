// Package wiring registers all Graft nodes for twoliter.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/twoliter/internal/adapters/config"
	_ "go.trai.ch/twoliter/internal/adapters/fs"
	_ "go.trai.ch/twoliter/internal/adapters/imagetool"
	_ "go.trai.ch/twoliter/internal/adapters/logger"
	// Register app and engine nodes.
	_ "go.trai.ch/twoliter/internal/app"
	_ "go.trai.ch/twoliter/internal/engine/lock"
)
