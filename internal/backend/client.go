// ABOUTME: HTTP client for the question-answering backend built on resty
// ABOUTME: Idempotent reads retry with backoff; chat sends are never retried
package backend

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
	"github.com/harper/chatdesk/internal/util"
)

const userAgent = "chatdesk/1.0"

// Config holds backend client settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns settings for a backend on localhost
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:5000",
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Client talks to the chat backend
type Client struct {
	reads  *resty.Client
	writes *resty.Client
}

var _ core.Backend = (*Client)(nil)

// NewClient creates a backend client from cfg
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	reads := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryDelay).
		SetRetryMaxWaitTime(30 * time.Second).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			attempt := 1
			if resp != nil && resp.Request != nil {
				attempt = resp.Request.Attempt
			}
			return util.CalculateBackoff(cfg.RetryDelay, attempt), nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && (resp.StatusCode() >= http.StatusInternalServerError ||
				resp.StatusCode() == http.StatusTooManyRequests)
		})

	writes := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{reads: reads, writes: writes}
}

// checkResponse converts transport errors and non-2xx responses into errors
func checkResponse(path string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("calling backend %s: %w", path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Path: path}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}
	return nil
}

// FetchHistoryForUser returns the stored history rows for username
func (c *Client) FetchHistoryForUser(ctx context.Context, username string) ([]models.HistoryRecord, error) {
	var rows []userHistoryRow
	resp, err := c.reads.R().
		SetContext(ctx).
		SetPathParam("username", username).
		SetResult(&rows).
		SetError(&errorBody{}).
		Get("/history/user/{username}")
	if err := checkResponse("/history/user", resp, err); err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	log.Debug().Str("username", username).Int("records", len(records)).Msg("Fetched user history")
	return records, nil
}

// FetchConversation returns every record of one conversation, oldest first
func (c *Client) FetchConversation(ctx context.Context, id models.ConversationID) ([]models.HistoryRecord, error) {
	var rows []conversationRow
	resp, err := c.reads.R().
		SetContext(ctx).
		SetPathParam("id", string(id)).
		SetResult(&rows).
		SetError(&errorBody{}).
		Get("/chat/conversation/{id}")
	if err := checkResponse("/chat/conversation", resp, err); err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record(id))
	}
	return records, nil
}

// SendChatCommand posts one routed question and returns the answer
func (c *Client) SendChatCommand(ctx context.Context, cmd models.ChatCommand) (models.ChatReply, error) {
	var out chatResponse
	resp, err := c.writes.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Command:        cmd.Command(),
			Username:       cmd.Username,
			ConversationID: string(cmd.ConversationID),
		}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/chat")
	if err := checkResponse("/chat", resp, err); err != nil {
		return models.ChatReply{}, err
	}
	return models.ChatReply{Answer: out.Response}, nil
}

// AdminHistory returns every user's records; the backend checks role
func (c *Client) AdminHistory(ctx context.Context, role string) ([]models.HistoryRecord, error) {
	var out adminHistoryResponse
	resp, err := c.reads.R().
		SetContext(ctx).
		SetQueryParam("role", role).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/admin/history")
	if err := checkResponse("/admin/history", resp, err); err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(out.History))
	for _, row := range out.History {
		records = append(records, row.record())
	}
	return records, nil
}

// Login checks credentials and returns the user on success
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var out loginResponse
	resp, err := c.writes.R().
		SetContext(ctx).
		SetBody(credentials{Username: username, Password: password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/login")
	if err := checkResponse("/login", resp, err); err != nil {
		return models.User{}, err
	}
	if err := out.User.Validate(); err != nil {
		return models.User{}, fmt.Errorf("login response: %w", err)
	}
	return out.User, nil
}

// Register creates an account; an empty role lets the backend pick its default
func (c *Client) Register(ctx context.Context, username, password, role string) error {
	resp, err := c.writes.R().
		SetContext(ctx).
		SetBody(credentials{Username: username, Password: password, Role: role}).
		SetError(&errorBody{}).
		Post("/register")
	return checkResponse("/register", resp, err)
}

// UploadDocument sends a PDF for the document mode and returns its stored name
func (c *Client) UploadDocument(ctx context.Context, path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", ErrNotPDF
	}

	var out messageResponse
	resp, err := c.writes.R().
		SetContext(ctx).
		SetFile("file", path).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/upload_pdf")
	if err := checkResponse("/upload_pdf", resp, err); err != nil {
		return "", err
	}
	log.Info().Str("filename", out.Filename).Msg("Uploaded document")
	return out.Filename, nil
}

// Tables lists the database tables the sql mode can query
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	var out tablesResponse
	resp, err := c.reads.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/tables")
	if err := checkResponse("/tables", resp, err); err != nil {
		return nil, err
	}
	return out.Tables, nil
}
