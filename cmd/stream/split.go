package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dudk/stream"
	"github.com/dudk/stream/file"
	"github.com/dudk/stream/vfs"
)

func splitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <file> <dir>",
		Short: "Split file into parts of fixed size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v, "split")
			fs := vfs.OS()
			var parts int
			err := stream.Run(cmd.Context(), func(ctx context.Context, r *stream.Registry) error {
				var err error
				parts, err = file.Split(ctx, r, fs, args[0], args[1], v.GetInt(flagPartSize))
				return err
			}, stream.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("split %s: %w", args[0], err)
			}

			logger.Info("split into ", parts, " parts")
			fmt.Fprintf(cmd.OutOrStdout(), "parts: %d\n", parts)
			return nil
		},
	}
	cmd.Flags().Int(flagPartSize, 1024*1024, "size of every part in bytes")
	return cmd
}
