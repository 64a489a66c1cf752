package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/app"
	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/logging"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source/tempmail"
	"github.com/nhle/tempmail/internal/store"
	appsync "github.com/nhle/tempmail/internal/sync"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command needs once flags and config are resolved.
type env struct {
	v          *viper.Viper
	configPath string
	debug      bool
	cfg        *model.AppConfig
	logger     *zap.Logger
}

func (e *env) client() *tempmail.Client {
	return tempmail.NewClient(e.cfg.Backend.BaseURL, e.cfg.Backend.Timeout(), e.logger.Named("tempmail"))
}

func (e *env) openStore() (*store.SQLiteStore, error) {
	path := e.cfg.Store.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

func newRootCmd() *cobra.Command {
	e := &env{v: model.NewViper()}

	root := &cobra.Command{
		Use:           "tempmail",
		Short:         "Terminal client for a disposable-mailbox service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfigWith(e.v, e.configPath)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logging.Stderr(e.debug)
			zap.ReplaceGlobals(e.logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(e)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", model.DefaultConfigPath(), "Path to the YAML config file")
	flags.BoolVar(&e.debug, "debug", false, "Verbose development logging")
	flags.String("base-url", "http://localhost:8080", "Base URL of the temp-mail backend")
	flags.String("store", model.DefaultStorePath(), "Path to the local sqlite database")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	mustBind(e.v, "backend.base_url", flags.Lookup("base-url"))
	mustBind(e.v, "store.path", flags.Lookup("store"))
	mustBind(e.v, "log.level", flags.Lookup("log-level"))

	root.AddCommand(
		newNewCmd(e),
		newListCmd(e),
		newMessagesCmd(e),
		newDeleteCmd(e),
		newExportCmd(e),
		newArchiveCmd(e),
		newDecodeSubjectCmd(),
		newConfigCmd(e),
	)
	return root
}

func runTUI(e *env) error {
	// The TUI owns the terminal, so logs go to the file logger.
	logger, err := logging.New(e.cfg.Log, e.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	e.logger = logger

	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	client := e.client()
	poller := appsync.New(client, appsync.Options{
		Interval:     e.cfg.Poll.Interval(),
		FetchTimeout: e.cfg.Poll.FetchTimeout(),
	}, logger.Named("poller"))
	defer poller.StopSession()

	logger.Info("starting tui", zap.String("backend", e.cfg.Backend.BaseURL))

	m := app.New(app.Deps{
		Config: e.cfg,
		Store:  s,
		Source: client,
		Poller: poller,
		Vault:  credential.NewVault(),
		Logger: logger,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
