// Command gcode-ls starts the G-code language server, speaking
// JSON-RPC 2.0 over stdio. It replaces the teacher's trivial
// lsp/main.go entrypoint with cobra+viper flag/config binding (§10)
// and logrus structured logging (§11).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graelo/gcode-language-server/internal/config"
	"github.com/graelo/gcode-language-server/internal/document"
	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/lspserver"
	"github.com/graelo/gcode-language-server/internal/watch"
)

// workspaceFlavorSubdir is where the workspace flavor layer lives,
// relative to a client-supplied workspace root (§6's filesystem
// layout table).
const workspaceFlavorSubdir = ".gcode-ls/flavors"

// stdio adapts the combination of os.Stdin/os.Stdout into the single
// io.ReadWriteCloser jsonrpc2.NewStream expects, matching the
// teacher's NewServer() wiring of stdin/stdout.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	root := &cobra.Command{
		Use:   "gcode-ls",
		Short: "Language server for G-code",
	}
	v := viper.New()
	config.BindFlags(root, v)

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(v)
		if err != nil {
			if config.IsUsageError(err) {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			return err
		}

		// cfg.LogLevel was already validated by config.Resolve.
		level, _ := logrus.ParseLevel(cfg.LogLevel)
		logger.SetLevel(level)

		return run(cfg, logger)
	}

	if err := root.Execute(); err != nil {
		logger.WithError(err).Error("gcode-ls failed to start")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	registry := flavor.New(logger)
	if err := registry.LoadEmbedded(); err != nil {
		return fmt.Errorf("loading embedded flavors: %w", err)
	}

	var watchers []*watch.Watcher
	defer func() {
		for _, w := range watchers {
			w.Stop()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --flavor-dir values load at the caller-config layer (highest
	// precedence); the XDG directory config.Resolve appends loads at the
	// user-global layer.
	userGlobalDir := ""
	if d, err := os.UserConfigDir(); err == nil {
		userGlobalDir = filepath.Join(d, "gcode-ls", "flavors")
	}
	for _, dir := range cfg.FlavorDirs {
		layer := flavor.LayerCallerConfig
		if dir == userGlobalDir {
			layer = flavor.LayerUserGlobal
		}
		if err := registry.LoadDir(layer, dir); err != nil {
			logger.WithError(err).WithField("dir", dir).Warnf("loading %s flavor directory", layer)
			continue
		}
		if w, err := watch.New(dir, layer, registry, logger); err == nil {
			watchers = append(watchers, w)
			_ = w.Start(ctx)
		} else {
			logger.WithError(err).WithField("dir", dir).Warnf("could not watch %s flavor directory", layer)
		}
	}

	docs := document.NewService(registry, document.Config{
		StartupFlavor:    cfg.Flavor,
		LongDescriptions: cfg.LongDescriptions,
	}, logger)

	server := lspserver.New(stdio{Reader: os.Stdin, Writer: os.Stdout}, registry, docs, logger)
	server.OnInitialize = func(rootURI string) {
		dir := workspaceFlavorDir(rootURI)
		if dir == "" {
			return
		}
		if err := registry.LoadDir(flavor.LayerWorkspace, dir); err != nil {
			logger.WithError(err).WithField("dir", dir).Warn("loading workspace flavor directory")
			return
		}
		w, err := watch.New(dir, flavor.LayerWorkspace, registry, logger)
		if err != nil {
			logger.WithError(err).WithField("dir", dir).Warn("could not watch workspace flavor directory")
			return
		}
		watchers = append(watchers, w)
		_ = w.Start(ctx)
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		cancel()
	}()

	logger.Info("gcode-ls starting")
	return server.Run(ctx)
}

// workspaceFlavorDir resolves a client-supplied file:// root URI to
// the local .gcode-ls/flavors directory beneath it. A root the server
// cannot map to a local path (no workspace, or a non-file scheme)
// yields "", disabling the workspace layer for that session.
func workspaceFlavorDir(rootURI string) string {
	const scheme = "file://"
	if !strings.HasPrefix(rootURI, scheme) {
		return ""
	}
	root := strings.TrimPrefix(rootURI, scheme)
	if root == "" {
		return ""
	}
	return filepath.Join(root, workspaceFlavorSubdir)
}
