package mock_backend

import "github.com/Lerfilm/opendrama-sub004/application/ports/outbound"

// NoopLogger discards everything.
type NoopLogger struct{}

var _ outbound.LoggerPort = NoopLogger{}

func (NoopLogger) Info(msg string)                                          {}
func (NoopLogger) InfoWithFields(msg string, fields map[string]interface{}) {}
func (NoopLogger) Error(err error, msg string)                              {}
func (NoopLogger) ErrorWithFields(err error, msg string, fields map[string]interface{}) {
}
func (NoopLogger) Debug(msg string)                                          {}
func (NoopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (NoopLogger) Warn(msg string)                                           {}
func (NoopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
