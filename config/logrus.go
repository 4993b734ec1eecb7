package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}

func LogInfo(logger *logrus.Logger, moduleName string, funcName string, context string, message string) {
	logger.WithFields(logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}).Info(message)
}
