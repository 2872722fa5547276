package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxbig/repo-batch-refresh/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriterSize(destination, 4096)

	flushingWriter := utils.NewFlushingWriter(bufferedWriter)
	_, writeError := flushingWriter.Write([]byte("OK   | owner/project\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "OK   | owner/project\n", destination.String())
}

func TestFlushingWriterDoesNotDoubleWrap(testInstance *testing.T) {
	flushingWriter := utils.NewFlushingWriter(&bytes.Buffer{})
	require.Same(testInstance, flushingWriter, utils.NewFlushingWriter(flushingWriter))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
