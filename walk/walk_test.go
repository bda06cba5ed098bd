package walk_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/stream"
	"github.com/dudk/stream/vfs"
	"github.com/dudk/stream/walk"
)

func TestFiles(t *testing.T) {
	afs := afero.NewMemMapFs()
	for _, path := range []string{
		"root/b/2.txt",
		"root/b/1.txt",
		"root/a.txt",
		"root/c/d/e.txt",
	} {
		require.NoError(t, afero.WriteFile(afs, path, []byte(path), 0o644))
	}
	require.NoError(t, afs.MkdirAll("root/empty", 0o755))
	fs := vfs.New(afs)

	tests := []struct {
		root     string
		expected []string
	}{
		{
			root: "root",
			expected: []string{
				filepath.Join("root", "a.txt"),
				filepath.Join("root", "b", "1.txt"),
				filepath.Join("root", "b", "2.txt"),
				filepath.Join("root", "c", "d", "e.txt"),
			},
		},
		{
			root:     "root/a.txt",
			expected: []string{"root/a.txt"},
		},
		{
			root: "root/empty",
		},
	}
	for _, test := range tests {
		t.Run(test.root, func(t *testing.T) {
			ctx := context.Background()
			r := stream.NewRegistry()
			s, err := stream.Open(ctx, r, walk.Files(fs, test.root))
			require.NoError(t, err)
			result, err := stream.Collect(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
			assert.NoError(t, r.Teardown())
		})
	}

	t.Run("missing root", func(t *testing.T) {
		ctx := context.Background()
		r := stream.NewRegistry()
		s, err := stream.Open(ctx, r, walk.Files(fs, "missing"))
		require.NoError(t, err)
		_, err = stream.Collect(ctx, s)
		var ioErr *stream.IOError
		assert.ErrorAs(t, err, &ioErr)
	})
}

func TestMirror(t *testing.T) {
	const width = 20
	afs := afero.NewMemMapFs()
	for i := 0; i < width; i++ {
		for j := 0; j < width; j++ {
			for k := 0; k < width; k++ {
				path := filepath.Join("src", fmt.Sprintf("d%02d", i), fmt.Sprintf("d%02d", j), fmt.Sprintf("f%02d.txt", k))
				require.NoError(t, afero.WriteFile(afs, path, []byte(path), 0o644))
			}
		}
	}
	fs := vfs.Track(vfs.New(afs))

	var stats walk.Stats
	err := stream.Run(context.Background(), func(ctx context.Context, r *stream.Registry) error {
		var err error
		stats, err = walk.Mirror(ctx, r, fs, "src", "dst", 16)
		assert.Equal(t, 0, r.Pending())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, width*width*width, stats.Files)
	assert.Equal(t, 2*width*width*width, fs.Opened())
	assert.LessOrEqual(t, fs.Peak(), 2)
	assert.Equal(t, 0, fs.Open())

	src := filepath.Join("src", "d07", "d13", "f19.txt")
	data, err := afero.ReadFile(afs, filepath.Join("dst", "d07", "d13", "f19.txt"))
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
	assert.Equal(t, int64(width*width*width*len(src)), stats.Bytes)
}

func TestMirrorSingleFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "in.txt", []byte("data"), 0o644))
	fs := vfs.Track(vfs.New(afs))

	err := stream.Run(context.Background(), func(ctx context.Context, r *stream.Registry) error {
		stats, err := walk.Mirror(ctx, r, fs, "in.txt", "out.txt", 16)
		assert.Equal(t, 1, stats.Files)
		return err
	})
	require.NoError(t, err)
	data, err := afero.ReadFile(afs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.Equal(t, 0, fs.Open())
}

func TestMirrorCancelled(t *testing.T) {
	afs := afero.NewMemMapFs()
	for i := 0; i < 10; i++ {
		require.NoError(t, afero.WriteFile(afs, fmt.Sprintf("src/%d.txt", i), []byte("data"), 0o644))
	}
	fs := vfs.Track(vfs.New(afs))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := stream.Run(ctx, func(ctx context.Context, r *stream.Registry) error {
		_, err := walk.Mirror(ctx, r, fs, "src", "dst", 16)
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fs.Open())
	assert.Equal(t, 0, fs.Opened())
}
