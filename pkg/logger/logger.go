// Lodestar: a multi-provider manga search engine with adaptive failover.
// Copyright (C) 2025 Lodestar contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Service provides leveled logging for the engine and its components.
// Console output is gated by Verbose (info) and DebugMode (debug); warnings
// and errors always print. When LogFile is set, every level is appended
// there regardless of console gating.
type Service struct {
	Verbose     bool
	DebugMode   bool
	LogFile     string
	initialized bool
	fileLogger  *log.Logger
	mutex       sync.Mutex
}

// New returns a console-only logger. Callers wanting a file sink set
// LogFile before the first log call.
func New(verbose, debug bool) *Service {
	return &Service{Verbose: verbose, DebugMode: debug}
}

func (l *Service) initLogger() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.initialized {
		return nil
	}

	if l.LogFile != "" {
		logDir := filepath.Dir(l.LogFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(l.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		l.fileLogger = log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	}

	l.initialized = true
	return nil
}

func (l *Service) logToFile(level, format string, args ...interface{}) {
	if !l.initialized {
		if err := l.initLogger(); err != nil {
			fmt.Printf("Logger initialization error: %v\n", err)
			return
		}
	}

	if l.fileLogger != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05.000")
		pid := os.Getpid()
		message := fmt.Sprintf(format, args...)
		l.fileLogger.Printf("%s [%d] %s - %s", timestamp, pid, level, message)
	}
}

// Debug logs debug-level messages
func (l *Service) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
	l.logToFile("DEBUG", format, args...)
}

// Info logs informational messages
func (l *Service) Info(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Printf("[INFO] "+format+"\n", args...)
	}
	l.logToFile("INFO", format, args...)
}

// Warn logs warning messages
func (l *Service) Warn(format string, args ...interface{}) {
	fmt.Printf("[WARN] "+format+"\n", args...)
	l.logToFile("WARN", format, args...)
}

// Error logs error messages
func (l *Service) Error(format string, args ...interface{}) {
	fmt.Printf("[ERROR] "+format+"\n", args...)
	l.logToFile("ERROR", format, args...)
}
