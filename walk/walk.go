// Package walk traverses directory trees lazily and mirrors them file by
// file.
package walk

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dudk/stream"
	"github.com/dudk/stream/file"
	"github.com/dudk/stream/vfs"
)

// frame is a listed directory and the position in it.
type frame struct {
	dir   string
	names []string
	idx   int
}

// Files returns source of file paths under root. Directories are
// descended depth-first in lexical order. Only directory listings are
// kept in memory, no directory handles are held between pulls. If root
// is a file, it's the only element.
func Files(fs vfs.FS, root string) stream.SourceAllocatorFunc[string] {
	return func(context.Context, *stream.Registry) (stream.Source[string], error) {
		var (
			stack   []*frame
			started bool
		)
		return stream.Source[string]{
			SourceFunc: func(ctx context.Context) (string, error) {
				if !started {
					started = true
					switch {
					case fs.IsFile(root):
						return root, nil
					case fs.IsDir(root):
						names, err := fs.List(root)
						if err != nil {
							return "", &stream.IOError{Op: "list", Path: root, Err: err}
						}
						stack = append(stack, &frame{dir: root, names: names})
					default:
						return "", &stream.IOError{Op: "walk", Path: root, Err: fmt.Errorf("not a file or directory")}
					}
				}
				for len(stack) > 0 {
					if err := ctx.Err(); err != nil {
						return "", err
					}
					top := stack[len(stack)-1]
					if top.idx >= len(top.names) {
						stack = stack[:len(stack)-1]
						continue
					}
					path := filepath.Join(top.dir, top.names[top.idx])
					top.idx++
					if fs.IsDir(path) {
						names, err := fs.List(path)
						if err != nil {
							return "", &stream.IOError{Op: "list", Path: path, Err: err}
						}
						stack = append(stack, &frame{dir: path, names: names})
						continue
					}
					if fs.IsFile(path) {
						return path, nil
					}
				}
				return "", io.EOF
			},
			FlushFunc: func(context.Context) error {
				stack = nil
				return nil
			},
		}, nil
	}
}

// Stats is the result of Mirror.
type Stats struct {
	Files int
	Bytes int64
}

// Mirror copies every file under src into the same relative path under
// dst. Files are copied one at a time: every copy is a separate line
// that releases its source and sink before the next file is opened.
func Mirror(ctx context.Context, r *stream.Registry, fs vfs.FS, src, dst string, bufferSize int) (Stats, error) {
	var stats Stats
	files, err := stream.Open(ctx, r, Files(fs, src))
	if err != nil {
		return stats, err
	}
	copyFile := func(ctx context.Context, r *stream.Registry) (stream.Sink[string], error) {
		return stream.Sink[string]{
			SinkFunc: func(ctx context.Context, path string) error {
				rel, err := filepath.Rel(src, path)
				if err != nil {
					return err
				}
				target := dst
				if rel != "." {
					target = filepath.Join(dst, rel)
				}
				n, err := file.Copy(ctx, r, fs, path, target, bufferSize)
				if err != nil {
					return err
				}
				stats.Files++
				stats.Bytes += n
				return nil
			},
		}, nil
	}
	_, err = stream.Drain(ctx, r, files, copyFile)
	return stats, err
}
