// Package file provides byte sources and sinks backed by files. Every
// component owns exactly one file handle and releases it as soon as the
// file is exhausted, failed or abandoned.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dudk/stream"
	"github.com/dudk/stream/vfs"
)

// DefaultBufferSize is the size of chunks used by Copy.
const DefaultBufferSize = 32 * 1024

// Source reads file in chunks of bufferSize bytes. The last chunk might
// be shorter. File is opened at first pull and closed before io.EOF is
// returned. This component cannot be reused for consequent runs.
func Source(fs vfs.FS, path string, bufferSize int) stream.SourceAllocatorFunc[[]byte] {
	return func(_ context.Context, r *stream.Registry) (stream.Source[[]byte], error) {
		if bufferSize <= 0 {
			return stream.Source[[]byte]{}, fmt.Errorf("buffer %d: %w", bufferSize, stream.ErrInvalidSize)
		}
		h := stream.NewHandle(r,
			func() (afero.File, error) {
				return fs.OpenRead(path)
			},
			func(f afero.File) error {
				return f.Close()
			},
		)
		return stream.Source[[]byte]{
			SourceFunc: func(context.Context) ([]byte, error) {
				f, err := h.Get()
				if err != nil {
					if errors.Is(err, stream.ErrHandleReleased) {
						return nil, io.EOF
					}
					return nil, fmt.Errorf("open %s: %w", path, err)
				}
				b := make([]byte, bufferSize)
				n, err := io.ReadFull(f, b)
				switch {
				case err == nil:
					return b, nil
				case errors.Is(err, io.ErrUnexpectedEOF):
					return b[:n], nil
				case errors.Is(err, io.EOF):
					if err := h.Release(); err != nil {
						return nil, err
					}
					return nil, io.EOF
				}
				return nil, &stream.IOError{Op: "read", Path: path, Err: err}
			},
			FlushFunc: func(context.Context) error {
				return h.Release()
			},
		}, nil
	}
}

// Sink writes chunks to file. File and its parent directories are created
// when sink is allocated. File is closed when sink is flushed.
func Sink(fs vfs.FS, path string) stream.SinkAllocatorFunc[[]byte] {
	return func(_ context.Context, r *stream.Registry) (stream.Sink[[]byte], error) {
		if err := fs.MkdirAll(filepath.Dir(path)); err != nil {
			return stream.Sink[[]byte]{}, &stream.AcquisitionError{Err: err}
		}
		f, token, err := stream.Acquire(r,
			func() (afero.File, error) {
				return fs.OpenWrite(path)
			},
			func(f afero.File) error {
				return f.Close()
			},
		)
		if err != nil {
			return stream.Sink[[]byte]{}, fmt.Errorf("create %s: %w", path, err)
		}
		return stream.Sink[[]byte]{
			SinkFunc: func(_ context.Context, b []byte) error {
				if _, err := f.Write(b); err != nil {
					return &stream.IOError{Op: "write", Path: path, Err: err}
				}
				return nil
			},
			FlushFunc: func(context.Context) error {
				return r.Release(token)
			},
		}, nil
	}
}

// Copy copies src file into dst file. Source and sink handles are the only
// resources held and both are released before Copy returns.
func Copy(ctx context.Context, r *stream.Registry, fs vfs.FS, src, dst string, bufferSize int) (int64, error) {
	var written int64
	count := func(_ context.Context, b []byte) ([]byte, error) {
		written += int64(len(b))
		return b, nil
	}
	_, err := stream.Line[[]byte]{
		Source:     Source(fs, src, bufferSize),
		Processors: []stream.ProcessorAllocatorFunc[[]byte, []byte]{stream.Map(count)},
		Sink:       Sink(fs, dst),
	}.Run(ctx, r)
	return written, err
}

// Split splits file into parts of partSize bytes. Parts are named
// "<name>.<index>" and written into dir one at a time. Number of parts is
// returned.
func Split(ctx context.Context, r *stream.Registry, fs vfs.FS, path, dir string, partSize int) (int, error) {
	s, err := stream.Open(ctx, r, Source(fs, path, partSize))
	if err != nil {
		return 0, err
	}
	name := filepath.Base(path)
	return stream.Split(ctx, r, s, 1, func(i int) stream.SinkAllocatorFunc[[]byte] {
		return Sink(fs, PartName(dir, name, i))
	})
}

// PartName returns path of the i-th part of split file.
func PartName(dir, name string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%04d", name, i))
}
