package audit

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// FailureObserver учитывает неотправленные события
type FailureObserver interface {
	ObserveAuditFailure()
}
