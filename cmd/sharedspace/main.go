package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/app"
	"github.com/nhle/sharedspace/internal/credential"
	"github.com/nhle/sharedspace/internal/familyview"
	"github.com/nhle/sharedspace/internal/logging"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/session"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/store/mongostore"
	appsync "github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/theme"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sharedspace:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; variables may come from the shell.
	_ = godotenv.Load()

	cfgPath := model.DefaultConfigPath()
	if p := os.Getenv("SHAREDSPACE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := openStore(cfg.Store)
	if err != nil {
		log.Error("opening store failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("closing store failed", zap.Error(err))
		}
	}()
	log.Info("store ready", zap.String("driver", cfg.Store.Driver))

	var tokens session.TokenStore
	ring, err := credential.OpenKeyring(model.ConfigDir())
	if err != nil {
		log.Warn("keyring unavailable, sessions will not persist", zap.Error(err))
		tokens = &credential.Memory{}
	} else {
		tokens = ring
	}

	provider := session.NewProvider(s, tokens, log)
	themes := theme.NewContext(cfg.Display.Theme, model.ThemeFile{Path: cfgPath, Config: cfg})

	hub := appsync.New(s, log, appsync.WithAcceptance(familyview.AcceptPendingInvitations))
	detach := hub.Attach(provider)
	defer detach()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := provider.Restore(ctx); err != nil {
		log.Warn("session not restored", zap.Error(err))
	}
	cancel()

	root := app.New(app.Deps{
		Store:    s,
		Session:  provider,
		Hub:      hub,
		Theme:    themes,
		Log:      log,
		Location: time.Local,
	})

	if _, err := tea.NewProgram(root, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func openStore(cfg model.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case model.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ms, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		ss, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return ss, nil
	}
}
