package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"obex-browser/internal/cli"
	"obex-browser/internal/config"
	"obex-browser/internal/connmgr"
	"obex-browser/internal/logging"
	"obex-browser/internal/obex/dirsession"
	"obex-browser/internal/obex/obexd"
	"obex-browser/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// interruptGrace is how long an interrupted browse may take to unwind by
// itself before its session is disconnected from here.
const interruptGrace = 2 * time.Second

var (
	Debug bool

	configPath string

	errInterrupted = errors.New("interrupted")

	// rootCmd represents the main `obexbrowse` command
	rootCmd = &cobra.Command{
		Use:           "obexbrowse",
		Short:         "Browse and download files from a Bluetooth device over OBEX FTP",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runBrowse,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (default: ./obexbrowse.yaml or ~/.config/obexbrowse/obexbrowse.yaml)")
	flags.Duration("scan-timeout", config.DefaultScanTimeout, "how long to scan for devices")
	flags.String("download-dir", storage.DefaultDir, "directory downloaded files are saved in")
	flags.String("device", "", "Bluetooth address of the device to browse, skipping device selection")
	flags.String("local-root", "", "browse this local directory instead of a Bluetooth device")
	flags.String("log-level", logging.DefaultLevel, "log level: debug, info, warn or error")
	flags.String("log-format", logging.DefaultFormat, "log format: console or json")
	flags.String("log-output", logging.DefaultOutput, "log destination: stderr, stdout or a file path")
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	logger, err := logging.New(cfg.Log.Logging())
	if err != nil {
		return errors.Wrap(err, "unable to initialize logging")
	}
	defer func() { _ = logger.Sync() }()
	Debug = logger.Core().Enabled(zap.DebugLevel)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var (
		mu      sync.Mutex
		session cli.Session
	)
	track := func(s cli.Session) cli.Session {
		mu.Lock()
		session = s
		mu.Unlock()
		return s
	}

	svcCfg := cli.Config{
		Sink:        storage.NewLocal(afero.NewOsFs(), cfg.DownloadDir),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		StdoutIsTTY: term.IsTerminal(int(os.Stdout.Fd())),
		Stderr:      os.Stderr,
		Logger:      logger,
	}

	var run func() error
	if cfg.LocalRoot != "" {
		logger.Info("browsing local directory", zap.String("root", cfg.LocalRoot))
		run = func() error {
			service, err := cli.NewService(svcCfg)
			if err != nil {
				return errors.Wrap(err, "unable to initialize CLI")
			}
			_, err = service.Browse(ctx, track(dirsession.New(cfg.LocalRoot)))
			return err
		}
	} else {
		mgr := connmgr.New()
		defer func() {
			if err := mgr.Close(); err != nil {
				logger.Warn("closing bluetooth manager failed", zap.Error(err))
			}
		}()
		svcCfg.Discovery = mgr
		svcCfg.OpenSession = func(address string, channel uint8) cli.Session {
			return track(obexd.New(address, channel, logger))
		}
		run = func() error {
			service, err := cli.NewService(svcCfg)
			if err != nil {
				return errors.Wrap(err, "unable to initialize CLI")
			}
			_, err = service.Run(ctx, cli.DiscoverConfig{ScanTimeout: cfg.ScanTimeout, Address: cfg.Device})
			return err
		}
	}

	done := make(chan error, 1)
	go func() { done <- run() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	// A prompt blocked on stdin does not observe ctx. Give the browse a
	// moment to unwind, then release the session ourselves.
	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		return errors.Wrap(err, errInterrupted.Error())
	case <-time.After(interruptGrace):
	}
	mu.Lock()
	s := session
	mu.Unlock()
	if s != nil {
		if err := s.Disconnect(); err != nil {
			logger.Warn("disconnect after interrupt failed", zap.Error(err))
		}
	}
	return errInterrupted
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
