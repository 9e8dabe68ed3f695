package server

import (
	"github.com/smallbiznis/carhouse/internal/config"
	"go.uber.org/zap"
)

func testConfig() config.Config {
	return config.Config{AppName: "carhouse", Environment: "test", HTTPAddr: ":0"}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
