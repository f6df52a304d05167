package utils

import (
	"fmt"
	"io"
	"sync"
)

// FlushingWriter makes report lines visible immediately by invoking Flush on
// the wrapped writer after every write when it supports flushing.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. A nil writer yields io.Discard.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if writer == nil {
		writer = io.Discard
	}
	if alreadyWrapped, isFlushing := writer.(*FlushingWriter); isFlushing {
		return alreadyWrapped
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(interface{ Flush() error }); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}

// Linef formats a single report line terminated by a newline.
func (flushingWriter *FlushingWriter) Linef(format string, arguments ...any) {
	fmt.Fprintf(flushingWriter, format+"\n", arguments...)
}

// Line writes the provided text followed by a newline.
func (flushingWriter *FlushingWriter) Line(text string) {
	io.WriteString(flushingWriter, text+"\n")
}
