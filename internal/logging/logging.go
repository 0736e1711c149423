package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level writing to out and, when file is
// set, also appending to file. A nil out with no file discards everything.
// The returned closer releases the log file and is never nil.
func New(levelStr string, out io.Writer, file string) (*logrus.Logger, func() error, error) {
	log := logrus.New()

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	var writers []io.Writer
	if out != nil {
		writers = append(writers, out)
	}

	closer := func() error { return nil }
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, closer, err
		}
		writers = append(writers, f)
		closer = f.Close
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(io.MultiWriter(writers...))
	}

	return log, closer, nil
}
