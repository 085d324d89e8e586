package main

import (
	"os"

	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Log.Error(err)
		os.Exit(1)
	}
}
