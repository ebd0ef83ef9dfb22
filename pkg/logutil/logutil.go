// Package logutil provides logging utilities. Logging is disabled by default;
// it is turned on for the whole process at once, typically from a debugging
// flag of the main program.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     io.Writer = io.Discard
	outFile *os.File
	loggers []*log.Logger
)

// GetLogger gets a logger with the given prefix, registered so that later
// calls to SetOutput and SetOutputFile affect it.
func GetLogger(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	logger := log.New(out, prefix, log.LstdFlags)
	loggers = append(loggers, logger)
	return logger
}

// SetOutput redirects the output of all loggers, both existing ones and ones
// created in future calls to GetLogger, to the given writer.
func SetOutput(newOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeOutFile()
	outFile = nil
	out = newOut
	for _, logger := range loggers {
		logger.SetOutput(out)
	}
}

// SetOutputFile is like SetOutput, but with a file opened from the given path
// in append mode. An empty path discards log output instead.
func SetOutputFile(path string) error {
	mu.Lock()
	defer mu.Unlock()
	closeOutFile()
	if path == "" {
		outFile = nil
		out = io.Discard
	} else {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %v", path, err)
		}
		outFile = file
		out = file
	}
	for _, logger := range loggers {
		logger.SetOutput(out)
	}
	return nil
}

func closeOutFile() {
	if outFile != nil {
		outFile.Close()
	}
}
