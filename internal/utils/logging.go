package utils

import (
	"sync"

	"go.uber.org/zap"
)

var (
	Logger     *zap.Logger
	loggerOnce sync.Once
)

func InitLogger() {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
}

// GetLogger returns the process logger, building a production logger on first use
func GetLogger() *zap.Logger {
	loggerOnce.Do(func() {
		if Logger == nil {
			InitLogger()
		}
	})
	return Logger
}

// LoggerOrDefault lets constructors accept a nil logger
func LoggerOrDefault(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return GetLogger()
}
