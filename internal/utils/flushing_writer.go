package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter makes every report entry visible as soon as it is written,
// even when the destination buffers output.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
	flusher     flusher
}

// NewFlushingWriter wraps destination. A nil destination yields nil, and an
// existing FlushingWriter is returned unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch typedDestination := destination.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typedDestination
	}

	flushingWriter := &FlushingWriter{destination: destination}
	if bufferedDestination, buffered := destination.(flusher); buffered {
		flushingWriter.flusher = bufferedDestination
	}
	return flushingWriter
}

// Write forwards data and flushes buffered destinations.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil || flushingWriter.flusher == nil {
		return bytesWritten, writeError
	}
	return bytesWritten, flushingWriter.flusher.Flush()
}
