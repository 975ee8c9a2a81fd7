package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/resload"
)

var _ resload.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l with an entry tagged component=resload.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "resload")}
}

func (l LogrusLogger) Debug(msg string, f resload.Fields) { l.entry(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f resload.Fields)  { l.entry(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f resload.Fields)  { l.entry(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f resload.Fields) { l.entry(f).Error(msg) }

// entry moves an "err" error field to logrus' error key.
func (l LogrusLogger) entry(f resload.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			fields[logrus.ErrorKey] = err
			continue
		}
		fields[k] = v
	}
	return l.E.WithFields(fields)
}
