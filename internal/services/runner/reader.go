package runner

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ReaderSource reads one command per line. Blank lines and lines starting with '#' are skipped.
type ReaderSource struct {
	name   string
	r      io.Reader
	logger zerolog.Logger
}

// NewReaderSource creates a line-oriented source, typically over os.Stdin.
func NewReaderSource(name string, r io.Reader, logger zerolog.Logger) *ReaderSource {
	return &ReaderSource{
		name:   name,
		r:      r,
		logger: logger,
	}
}

// Name returns the source name.
func (s *ReaderSource) Name() string {
	return s.name
}

// Run handles lines until the reader is exhausted or ctx is cancelled.
func (s *ReaderSource) Run(ctx context.Context, handle HandleFunc) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	// The scanner blocks in Read and cannot be interrupted, so it runs on its own goroutine.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return ctx.Err()
				}
			}

			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			// Failures are logged by the handler and must not stop the stream.
			_, _ = handle(ctx, line)
		}
	}
}
