package main

import (
	"calsync/core/logger"
	"calsync/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
