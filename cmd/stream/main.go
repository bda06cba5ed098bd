// Command stream mirrors directory trees and splits files with
// resource-safe pipelines.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dudk/stream/log"
)

const (
	envPrefix = "STREAM"

	flagConfig     = "config"
	flagDebug      = "debug"
	flagBufferSize = "buffer-size"
	flagPartSize   = "part-size"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd returns root command with all subcommands registered.
// Flags of every command are bound into the same viper instance, so
// values can come from flags, STREAM_* environment or config file.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "stream",
		Short:         "Copy and split files one handle at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if path := v.GetString(flagConfig); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config: %w", err)
				}
			}
			return nil
		},
	}
	root.PersistentFlags().String(flagConfig, "", "config file (yaml, json or toml)")
	root.PersistentFlags().Bool(flagDebug, false, "enable debug logging")

	root.AddCommand(mirrorCmd(v), splitCmd(v))
	return root
}

// newLogger returns logger with level set by configuration.
func newLogger(v *viper.Viper, command string) *logrus.Entry {
	l := log.GetLogger()
	if v.GetBool(flagDebug) {
		l.SetLevel(logrus.DebugLevel)
	}
	return log.WithScope(l, command)
}
