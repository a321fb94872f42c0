package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/config"
	"vidlingo/errors"
)

// Token is the credential returned by the auth service.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// tokenConfigKey is where the access token lives in the user config file.
const tokenConfigKey = "authToken"

// Client talks to the account service and persists the session token into
// the user config.
type Client struct {
	baseURL    string
	httpClient *http.Client
	config     *config.Config
	logger     *logrus.Logger
}

func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	timeout := cfg.Auth.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.Auth.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger,
	}
}

// Login exchanges credentials for a token and saves it to the user config.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	const op = "AuthClient.Login"

	if email == "" || password == "" {
		return nil, errors.InvalidInput(op, nil, "Email and password are required")
	}

	var token Token
	payload := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, op, "/api/auth/login", payload, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.Unavailable(op, nil, "Auth service returned an empty token")
	}

	if err := c.saveToken(token.AccessToken); err != nil {
		c.logger.WithError(err).Warn("Failed to persist auth token")
	}

	c.logger.WithField("email", email).Info("Logged in")
	return &token, nil
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	const op = "AuthClient.Register"

	if email == "" {
		return errors.InvalidInput(op, nil, "Email is required")
	}
	if len(password) < 6 {
		return errors.InvalidInput(op, nil, "Password must be at least 6 characters")
	}

	payload := map[string]string{"email": email, "password": password}
	return c.post(ctx, op, "/api/auth/register", payload, nil)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "AuthClient.RequestPasswordReset"

	if email == "" {
		return errors.InvalidInput(op, nil, "Email is required")
	}

	payload := map[string]string{"email": email}
	return c.post(ctx, op, "/api/auth/password-reset", payload, nil)
}

// SavedToken returns the persisted token, empty when not logged in.
func (c *Client) SavedToken() (string, error) {
	uc, err := c.config.ReadUserConfig()
	if err != nil {
		return "", err
	}
	token, _ := uc[tokenConfigKey].(string)
	return token, nil
}

// Logout drops the persisted token.
func (c *Client) Logout() error {
	uc, err := c.config.ReadUserConfig()
	if err != nil {
		return err
	}
	delete(uc, tokenConfigKey)
	return c.config.WriteUserConfig(uc)
}

func (c *Client) saveToken(token string) error {
	uc, err := c.config.ReadUserConfig()
	if err != nil {
		return err
	}
	uc[tokenConfigKey] = token
	return c.config.WriteUserConfig(uc)
}

func (c *Client) post(ctx context.Context, op, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Internal(op, err, "Failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Internal(op, err, "Failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Unavailable(op, err, "Auth service unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Unavailable(op, err, "Failed to read auth response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.InvalidInput(op, nil, "Invalid email or password")
	case resp.StatusCode == http.StatusBadRequest:
		return errors.InvalidInput(op, nil, authDetail(respBody, "Request rejected"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.Unavailable(op, nil,
			fmt.Sprintf("Auth service returned %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Unavailable(op, err, "Malformed auth response")
		}
	}
	return nil
}

func authDetail(body []byte, fallback string) string {
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Detail != "" {
		return resp.Detail
	}
	return fallback
}
