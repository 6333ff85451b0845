package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

const (
	ssePrefix = "data: "
	sseDone   = "[DONE]"

	// Generous line buffer; a single chunk can carry a large tool-argument
	// fragment.
	sseMaxLineSize = 1024 * 1024
)

// StreamReader iterates the SSE chunks of a streaming chat completion.
// Not safe for concurrent use.
type StreamReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func newStreamReader(body io.ReadCloser) *StreamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), sseMaxLineSize)
	return &StreamReader{body: body, scanner: scanner}
}

// Recv returns the next chunk. It returns io.EOF when the backend signals
// completion or the stream ends, and the context's error when ctx is done.
func (r *StreamReader) Recv(ctx context.Context) (*ChatStreamChunk, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, &StreamError{Message: "reading stream", Cause: err}
			}
			return nil, io.EOF
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || !strings.HasPrefix(line, ssePrefix) {
			continue
		}

		data := strings.TrimPrefix(line, ssePrefix)
		if data == sseDone {
			return nil, io.EOF
		}

		var chunk ChatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &ParseError{Message: "decoding stream chunk", Cause: err}
		}
		return &chunk, nil
	}
}

// Close releases the underlying connection. Safe to call more than once.
func (r *StreamReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.body.Close()
}
