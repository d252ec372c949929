// Package upload validates incoming files before they reach decryption or
// storage. It reads the stream through a hard size limit and checks the
// media type against both the declared and the sniffed content type.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/JaimeStill/courier/pkg/formatting"
)

const octetStream = "application/octet-stream"

// File is a validated upload held in memory.
type File struct {
	Data        []byte
	Size        int64
	ContentType string
}

// Gate enforces upload size and media type limits.
type Gate struct {
	maxSize  int64
	accepted []string
}

// New creates a Gate from a finalized Config.
func New(cfg *Config) *Gate {
	accepted := make([]string, 0, len(cfg.AcceptedTypes))
	for _, t := range cfg.AcceptedTypes {
		accepted = append(accepted, normalize(t))
	}
	return &Gate{
		maxSize:  cfg.MaxSizeBytes(),
		accepted: accepted,
	}
}

// MaxSize returns the configured byte ceiling.
func (g *Gate) MaxSize() int64 {
	return g.maxSize
}

// Validate reads r and returns the validated file. A declaredSize of zero or
// less means unknown. Nothing is persisted; on error the read buffer is
// discarded.
func (g *Gate) Validate(ctx context.Context, r io.Reader, declaredSize int64, declaredType string) (*File, error) {
	if declaredSize > g.maxSize {
		return nil, fmt.Errorf("%w: declared %s, limit %s", ErrFileTooLarge, formatting.FormatBytes(declaredSize, 1), formatting.FormatBytes(g.maxSize, 0))
	}

	declared := normalize(declaredType)
	if declared != "" && declared != octetStream && !g.accepts(declared) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, declared)
	}

	data, err := io.ReadAll(io.LimitReader(&contextReader{ctx: ctx, r: r}, g.maxSize+1))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if int64(len(data)) > g.maxSize {
		return nil, fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(g.maxSize, 0))
	}

	sniffed := normalize(http.DetectContentType(data))

	resolved := declared
	if resolved == "" || resolved == octetStream {
		resolved = sniffed
	}

	if !g.accepts(resolved) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, resolved)
	}
	if sniffed != resolved && sniffed != octetStream {
		return nil, fmt.Errorf("%w: declared %s, content is %s", ErrUnsupportedMediaType, resolved, sniffed)
	}

	return &File{
		Data:        data,
		Size:        int64(len(data)),
		ContentType: resolved,
	}, nil
}

func (g *Gate) accepts(mediaType string) bool {
	return slices.Contains(g.accepted, mediaType)
}

// normalize strips parameters and lowercases a media type.
func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// contextReader fails reads once ctx is done so an aborted client releases
// the handler promptly.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
