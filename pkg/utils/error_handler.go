package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorHandler logs the underlying error and wraps it with a caller-facing
// message. Returns nil when err is nil so it can sit inline on happy paths.
func ErrorHandler(err error, message string) error {
	if err == nil {
		return nil
	}
	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error(message)
	return fmt.Errorf("%s: %w", message, err)
}
