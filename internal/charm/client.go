// ABOUTME: Charm KV wrapper that remembers the logged-in user across devices
// ABOUTME: Stores the profile under a single key and syncs when enabled
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"

	"github.com/harper/chatdesk/internal/models"
)

// ProfilePrefix namespaces profile entries in the KV store
const ProfilePrefix = "profile:"

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "charm.2389.dev"
	}
	return &Config{
		Host:   host,
		DBName: "chatdesk",
	}
}

// store is the subset of charm's KV the profile needs
type store interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Sync() error
	Reset() error
	Close() error
}

// Client wraps charm KV for profile operations
type Client struct {
	kv     store
	config *Config
	mu     sync.Mutex
}

// storedProfile is the JSON document kept under the profile key
type storedProfile struct {
	User    models.User `json:"user"`
	SavedAt time.Time   `json:"saved_at"`
}

// NewClient opens the charm KV database named in cfg
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// Set CHARM_HOST before opening KV
	os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	return newClient(db, cfg), nil
}

func newClient(s store, cfg *Config) *Client {
	c := &Client{kv: s, config: cfg}
	// Pull remote data on startup
	if cfg.AutoSync {
		if err := s.Sync(); err != nil {
			log.Warn().Err(err).Msg("Charm sync on open failed")
		}
	}
	return c
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// syncIfEnabled syncs to cloud after writes
func (c *Client) syncIfEnabled() {
	if c.config.AutoSync {
		if err := c.kv.Sync(); err != nil {
			log.Warn().Err(err).Msg("Charm sync after write failed")
		}
	}
}

// ProfileKey returns the key holding the logged-in user
func ProfileKey() string {
	return ProfilePrefix + "user"
}

// SaveUser remembers u as the logged-in user
func (c *Client) SaveUser(u models.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(storedProfile{User: u, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set([]byte(ProfileKey()), data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", ProfileKey(), err)
	}
	c.syncIfEnabled()
	return nil
}

// LoadUser returns the remembered user; ok is false when nobody is logged in
func (c *Client) LoadUser() (models.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.kv.Get([]byte(ProfileKey()))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && len(data) == 0) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to get key %s: %w", ProfileKey(), err)
	}

	var p storedProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return models.User{}, false, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if strings.TrimSpace(p.User.Username) == "" {
		return models.User{}, false, nil
	}
	return p.User, true, nil
}

// ClearUser forgets the logged-in user; clearing an empty profile is not an error
func (c *Client) ClearUser() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.kv.Delete([]byte(ProfileKey()))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", ProfileKey(), err)
	}
	c.syncIfEnabled()
	return nil
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Reset wipes all local data
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// Host returns the configured charm host
func (c *Client) Host() string {
	return c.config.Host
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// GetAuthorizedKeys returns the list of linked devices/keys
func (c *Client) GetAuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}
