package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSource_Lines(t *testing.T) {
	src := NewReaderSource(io.NopCloser(strings.NewReader("1 2 3\r\n4 5 6\n\n7 8 9")))
	ctx := context.Background()

	var lines []string
	for {
		line, err := src.ReadLine(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}

	assert.Equal(t, []string{"1 2 3", "4 5 6", "", "7 8 9"}, lines)
	assert.NoError(t, src.Close())
}

func TestReaderSource_CancelledContext(t *testing.T) {
	src := NewReaderSource(io.NopCloser(strings.NewReader("1 2 3\n")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// timeoutReader imitates a serial port with a read timeout: some reads return no data.
type timeoutReader struct {
	chunks []string
	closed bool
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.ErrClosedPipe
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	if chunk == "" {
		return 0, io.EOF
	}
	return copy(p, chunk), nil
}

func (r *timeoutReader) Close() error {
	r.closed = true
	return nil
}

func TestSerialSource_ReadTimeoutIsNotEndOfStream(t *testing.T) {
	port := &timeoutReader{chunks: []string{"", "10 0.", "", "5 12\r\n", "11 0.6 13\n"}}
	src := newSerialSource(port)
	ctx := context.Background()

	line, err := src.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10 0.5 12", line)

	line, err = src.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "11 0.6 13", line)

	_, err = src.ReadLine(ctx)
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	require.NoError(t, src.Close())
	assert.True(t, port.closed)
}

func TestFollowFile_NoFollowEndsWithEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 1 0.5\n1 2 0.25\n"), 0o600))

	src, err := FollowFile(path, false)
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	line, err := src.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0 1 0.5", line)

	line, err = src.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1 2 0.25", line)

	_, err = src.ReadLine(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestFollowFile_MissingFile(t *testing.T) {
	_, err := FollowFile(filepath.Join(t.TempDir(), "missing.txt"), false)
	assert.Error(t, err)
}
