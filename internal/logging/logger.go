package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds a JSON logger writing one object per line to w.
// Timestamps are rendered in loc under the "ts" key to match the request logs.
func New(w io.Writer, level string, loc *time.Location) *logrus.Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&locationFormatter{
		loc: loc,
		inner: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		},
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// LoadLocation resolves a timezone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	return New(io.Discard, "panic", time.UTC)
}

type locationFormatter struct {
	loc   *time.Location
	inner logrus.Formatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}
