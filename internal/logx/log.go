// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package logx is the process-wide log. It writes to stdout, and optionally also to a
// file. It does not add prefixes, or force newlines.
package logx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu        sync.Mutex
	stdout    io.Writer     = os.Stdout
	logFile   *bufio.Writer // the optional additional file to log into
	logFileOS *os.File
)

// Enables logging to file, closing any previous log file
func AlsoToFile(fileName string) error {
	mu.Lock()
	defer mu.Unlock()
	if err := closeFile(); err != nil {
		return err
	}
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	logFileOS, logFile = f, bufio.NewWriter(f)
	return nil
}

func closeFile() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Flush()
	if cerr := logFileOS.Close(); err == nil {
		err = cerr
	}
	logFile, logFileOS = nil, nil
	return err
}

// Flushes and closes the log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFile()
}

type tee struct{}

func (tee) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	n, err := stdout.Write(p)
	if err != nil || logFile == nil {
		return n, err
	}
	return logFile.Write(p)
}

// Returns a writer into the log, safe for concurrent use
func Writer() io.Writer { return tee{} }

func Print(args ...interface{}) (n int, err error) {
	return fmt.Fprint(tee{}, args...)
}

func Println(args ...interface{}) (n int, err error) {
	return fmt.Fprintln(tee{}, args...)
}

func Printf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(tee{}, format, args...)
}

// Logs, closes the log file and exits with status 1
func Fatal(args ...interface{}) {
	Println(args...)
	Close()
	os.Exit(1)
}

// Logs, closes the log file and exits with status 1
func Fatalf(format string, args ...interface{}) {
	Printf(format, args...)
	Close()
	os.Exit(1)
}

// Flushes the log file to disk
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	if err := logFile.Flush(); err != nil {
		return err
	}
	return logFileOS.Sync()
}
