package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/client"
)

const envPrefix = "HELLOWORLD"

// Static error variables for err113 compliance
var (
	errPrivateKeyMissing = errors.New("a private key is required (--private-key or HELLOWORLD_PRIVATE_KEY)")
	errTimeoutInvalid    = errors.New("timeout must be positive")
)

// config holds the settings shared by every subcommand.
type config struct {
	OverlayURL string        `mapstructure:"overlay-url"`
	LogLevel   string        `mapstructure:"log-level"`
	Chain      string        `mapstructure:"chain"`
	PrivateKey string        `mapstructure:"private-key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// app carries the resolved configuration into subcommands.
type app struct {
	v      *viper.Viper
	cfg    config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "helloworld",
		Short:         "Create and find HelloWorld overlay tokens",
		Long:          "helloworld locks short messages in PushDrop tokens, submits them to the tm_helloworld topic and queries ls_helloworld.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd, configFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("overlay-url", "http://localhost:8080", "overlay base URL")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("chain", "main", "chain the wallet operates on (main or test)")
	flags.String("private-key", "", "hex private key for signing and funding tokens")
	flags.Duration("timeout", 30*time.Second, "timeout for overlay and wallet operations")

	rootCmd.AddCommand(
		a.newEncodeCmd(),
		a.newDecodeCmd(),
		a.newSendCmd(),
		a.newFindCmd(),
	)
	return rootCmd
}

// load merges flags, HELLOWORLD_* environment variables and the optional config file.
func (a *app) load(cmd *cobra.Command, configFile string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile != "" {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if a.cfg.Timeout <= 0 {
		return errTimeoutInvalid
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.LogLevel, err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

func (a *app) newClient() (*client.Client, error) {
	return client.New(a.cfg.OverlayURL, client.WithLogger(a.logger))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
