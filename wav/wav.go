// Package wav provides source and sink of PCM buffers backed by wav
// files.
package wav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"github.com/dudk/stream"
	"github.com/dudk/stream/vfs"
)

// pcmFormat is the wav audio format for PCM data.
const pcmFormat = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

type (
	reader struct {
		file    afero.File
		decoder *wav.Decoder
	}

	writer struct {
		file    afero.File
		encoder *wav.Encoder
	}
)

// Source reads wav file in buffers of bufferSize frames. File is opened at
// first pull and closed before io.EOF is returned. This component cannot
// be reused for consequent runs.
func Source(fs vfs.FS, path string, bufferSize int) stream.SourceAllocatorFunc[*audio.IntBuffer] {
	return func(_ context.Context, r *stream.Registry) (stream.Source[*audio.IntBuffer], error) {
		if bufferSize <= 0 {
			return stream.Source[*audio.IntBuffer]{}, fmt.Errorf("buffer %d: %w", bufferSize, stream.ErrInvalidSize)
		}
		h := stream.NewHandle(r,
			func() (reader, error) {
				return openReader(fs, path)
			},
			func(rd reader) error {
				return rd.file.Close()
			},
		)
		return stream.Source[*audio.IntBuffer]{
			SourceFunc: func(context.Context) (*audio.IntBuffer, error) {
				rd, err := h.Get()
				if err != nil {
					if errors.Is(err, stream.ErrHandleReleased) {
						return nil, io.EOF
					}
					return nil, fmt.Errorf("open %s: %w", path, err)
				}
				format := rd.decoder.Format()
				b := &audio.IntBuffer{
					Format:         format,
					Data:           make([]int, bufferSize*format.NumChannels),
					SourceBitDepth: int(rd.decoder.BitDepth),
				}
				n, err := rd.decoder.PCMBuffer(b)
				if err != nil && !errors.Is(err, io.EOF) {
					return nil, &stream.IOError{Op: "read", Path: path, Err: err}
				}
				if n == 0 {
					if err := h.Release(); err != nil {
						return nil, err
					}
					return nil, io.EOF
				}
				// prune buffer to actual size
				b.Data = b.Data[:n]
				return b, nil
			},
			FlushFunc: func(context.Context) error {
				return h.Release()
			},
		}, nil
	}
}

func openReader(fs vfs.FS, path string) (reader, error) {
	f, err := fs.OpenRead(path)
	if err != nil {
		return reader{}, err
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		if err := f.Close(); err != nil {
			return reader{}, fmt.Errorf("%w, failed to close the file: %v", ErrInvalidFile, err)
		}
		return reader{}, ErrInvalidFile
	}
	if !supported(int(d.BitDepth)) {
		if err := f.Close(); err != nil {
			return reader{}, fmt.Errorf("%w, failed to close the file: %v", ErrUnsupportedBitDepth, err)
		}
		return reader{}, ErrUnsupportedBitDepth
	}
	return reader{file: f, decoder: d}, nil
}

// Sink writes buffers into wav file. Sample rate and number of channels
// are taken from the first buffer, the file is created at that moment.
// Encoder and file are closed when sink is flushed.
func Sink(fs vfs.FS, path string, bitDepth int) stream.SinkAllocatorFunc[*audio.IntBuffer] {
	return func(_ context.Context, r *stream.Registry) (stream.Sink[*audio.IntBuffer], error) {
		if !supported(bitDepth) {
			return stream.Sink[*audio.IntBuffer]{}, ErrUnsupportedBitDepth
		}
		var format *audio.Format
		h := stream.NewHandle(r,
			func() (writer, error) {
				if err := fs.MkdirAll(filepath.Dir(path)); err != nil {
					return writer{}, err
				}
				f, err := fs.OpenWrite(path)
				if err != nil {
					return writer{}, err
				}
				e := wav.NewEncoder(f, format.SampleRate, bitDepth, format.NumChannels, pcmFormat)
				return writer{file: f, encoder: e}, nil
			},
			func(w writer) error {
				if err := w.encoder.Close(); err != nil {
					if cerr := w.file.Close(); cerr != nil {
						return fmt.Errorf("%w, failed to close the file: %v", err, cerr)
					}
					return err
				}
				return w.file.Close()
			},
		)
		return stream.Sink[*audio.IntBuffer]{
			SinkFunc: func(_ context.Context, b *audio.IntBuffer) error {
				if format == nil {
					if b.Format == nil {
						return &stream.IOError{Op: "write", Path: path, Err: errors.New("buffer without format")}
					}
					format = b.Format
				}
				w, err := h.Get()
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				if err := w.encoder.Write(b); err != nil {
					return &stream.IOError{Op: "write", Path: path, Err: err}
				}
				return nil
			},
			FlushFunc: func(context.Context) error {
				return h.Release()
			},
		}, nil
	}
}

func supported(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 32
}
