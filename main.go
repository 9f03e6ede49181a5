package main

import (
	"os"
	_ "time/tzdata"

	"interview-scheduler/core/logger"
	"interview-scheduler/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
