// Package main is the entry point for the sceneplay application.
package main

import (
	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/cmd"
	"github.com/sceneplay/sceneplay/config"
	"github.com/sceneplay/sceneplay/internal/cache"
	"github.com/sceneplay/sceneplay/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
