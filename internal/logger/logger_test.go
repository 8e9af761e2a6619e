package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.False(logger.Core().Enabled(zap.DebugLevel))
	suite.True(logger.Core().Enabled(zap.InfoLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	tests := []struct {
		name        string
		level       string
		expectError bool
		debug       bool
	}{
		{"debug level", "debug", false, true},
		{"warn level", "warn", false, false},
		{"unknown level", "chatty", true, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			logger, err := NewLoggerWithLevel(tc.level)
			if tc.expectError {
				suite.Error(err)
				suite.Nil(logger)

				return
			}

			suite.NoError(err)
			suite.Equal(tc.debug, logger.Core().Enabled(zap.DebugLevel))
		})
	}
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNopAndNamed() {
	logger := NewNopLogger()
	child := logger.Named("broker")
	suite.NotNil(child.Logger)

	// Should not panic
	child.Info("fill", zap.Float64("price", 100))
	child.Warn("rejected")
}
