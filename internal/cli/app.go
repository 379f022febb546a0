package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/odysseus0/sharedfeed/internal/config"
	feedpkg "github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/reader"
	"github.com/odysseus0/sharedfeed/internal/store"
)

type App struct {
	cfg      config.Config
	db       *sql.DB
	store    *store.Store
	renderer *feedpkg.Renderer
	fetcher  *feedpkg.Fetcher
	reader   *reader.Manager
	logger   *log.Logger
}

func NewApp(cfg config.Config, logOut io.Writer) (*App, error) {
	logger, err := newLogger(logOut, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := store.NewStore(db)
	fetcher := feedpkg.NewFetcher(s, feedpkg.NewSanitizer(nil, nil), cfg, logger.WithPrefix("fetch"))

	return &App{
		cfg:      cfg,
		db:       db,
		store:    s,
		renderer: feedpkg.NewRenderer(),
		fetcher:  fetcher,
		reader:   reader.NewManager(s, fetcher, logger.WithPrefix("reader")),
		logger:   logger,
	}, nil
}

// currentUser resolves the user selected by --user or user_email.
func (a *App) currentUser(ctx context.Context) (User, error) {
	email := strings.TrimSpace(a.cfg.UserEmail)
	if email == "" {
		return User{}, fmt.Errorf("%w: no user selected (pass --user or set user_email)", store.ErrInvalidInput)
	}
	return a.reader.UserByEmail(ctx, email)
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %v", store.ErrInvalidInput, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "sharedfeed",
	}), nil
}
