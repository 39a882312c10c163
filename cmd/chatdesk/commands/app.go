// ABOUTME: Shared wiring for commands: config, backend client, cache, and profile
// ABOUTME: Resolves who is chatting and builds sessions for each command
package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/backend"
	"github.com/harper/chatdesk/internal/charm"
	"github.com/harper/chatdesk/internal/config"
	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
	"github.com/harper/chatdesk/internal/storage/sqlite"
)

// profileStore is the part of the charm client commands use
type profileStore interface {
	SaveUser(u models.User) error
	LoadUser() (models.User, bool, error)
	ClearUser() error
	Close() error
}

// openProfile is replaced in tests so no real charm database is touched
var openProfile = func(cfg *config.Config) (profileStore, error) {
	return charm.NewClient(&charm.Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.AutoSync,
	})
}

// app bundles what a command needs; close it when done
type app struct {
	cfg     *config.Config
	client  *backend.Client
	db      *sqlite.DB
	records *sqlite.RecordStore
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if modeFlag != "" {
		cfg.Mode = modeFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:    cfg,
		client: backend.NewClient(cfg.Backend()),
	}

	if cfg.CacheEnabled {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.DBPath).Msg("Local cache unavailable")
		} else {
			a.db = db
			a.records = sqlite.NewRecordStore(db)
		}
	}
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// backend returns the live client, wrapped by the cache when one is open
func (a *app) backend() core.Backend {
	if a.records != nil {
		return sqlite.NewCachingBackend(a.client, a.records)
	}
	return a.client
}

// offlineBackend serves reads from the cache only
func (a *app) offlineBackend() (core.Backend, error) {
	if a.records == nil {
		return nil, errors.New("offline mode needs the local cache (CHATDESK_CACHE=true)")
	}
	return sqlite.NewOfflineBackend(a.records), nil
}

// username resolves --user, then CHATDESK_USERNAME, then the saved login
func (a *app) username() (string, error) {
	if name := strings.TrimSpace(userFlag); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(a.cfg.Username); name != "" {
		return name, nil
	}
	user, ok, err := a.savedUser()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("no user: run 'chatdesk login', pass --user, or set CHATDESK_USERNAME")
	}
	return user.Username, nil
}

// savedUser reads the logged-in user from the profile store
func (a *app) savedUser() (models.User, bool, error) {
	store, err := openProfile(a.cfg)
	if err != nil {
		return models.User{}, false, fmt.Errorf("opening profile store: %w", err)
	}
	defer store.Close()
	return store.LoadUser()
}

// newSession builds a session for the resolved user
func (a *app) newSession(b core.Backend, opts ...core.Option) (*core.Session, error) {
	name, err := a.username()
	if err != nil {
		return nil, err
	}
	base := []core.Option{
		core.WithMode(a.cfg.InitialMode()),
		core.WithGrouper(core.NewGrouper(a.cfg.Location())),
		core.WithLogger(log.Logger),
	}
	return core.NewSession(b, name, append(base, opts...)...), nil
}

// sessionBackend picks the offline or live backend
func (a *app) sessionBackend(offline bool) (core.Backend, error) {
	if offline {
		return a.offlineBackend()
	}
	return a.backend(), nil
}

// wantJSON reports whether output should be JSON
func wantJSON(cmd *cobra.Command) bool {
	if outputFormat == "json" {
		return true
	}
	if outputFormat == "table" {
		return false
	}
	// auto: JSON when stdout is not a terminal
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice == 0
}
