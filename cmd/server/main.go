package main

import (
	"github.com/engineer42AI/regtrace/internal/server"
	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/logger"
	"github.com/engineer42AI/regtrace/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
