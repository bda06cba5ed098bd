package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dudk/stream"
	"github.com/dudk/stream/file"
	"github.com/dudk/stream/vfs"
	"github.com/dudk/stream/walk"
)

func mirrorCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <src> <dst>",
		Short: "Copy every file under src into the same path under dst",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v, "mirror")
			fs := vfs.Track(vfs.OS())
			var stats walk.Stats
			err := stream.Run(cmd.Context(), func(ctx context.Context, r *stream.Registry) error {
				var err error
				stats, err = walk.Mirror(ctx, r, fs, args[0], args[1], v.GetInt(flagBufferSize))
				return err
			}, stream.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("mirror %s: %w", args[0], err)
			}

			logger.Info("mirrored ", stats.Files, " files")
			fmt.Fprintf(cmd.OutOrStdout(), "files: %d\nbytes: %d\npeak open handles: %d\n", stats.Files, stats.Bytes, fs.Peak())
			if limit, err := openFilesLimit(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "open files limit: %d\n", limit)
			}
			return nil
		},
	}
	cmd.Flags().Int(flagBufferSize, file.DefaultBufferSize, "size of read buffer in bytes")
	return cmd
}
