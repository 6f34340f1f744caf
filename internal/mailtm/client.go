package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rishi-singh26/tempbox/internal/model"
)

const (
	contentTypeJSON       = "application/json"
	contentTypeMergePatch = "application/merge-patch+json"
)

// Client is a thin HTTP client for the mail.tm REST API. It handles
// bearer-token authentication, JSON (de)serialization, and maps HTTP
// status codes to typed errors. Every operation is a single attempt;
// retries are the caller's decision.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a client for the API rooted at baseURL. A zero
// timeout falls back to 30 seconds.
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// ListDomains returns a page of address domains offered by the provider.
func (c *Client) ListDomains(ctx context.Context, page int) ([]Domain, error) {
	var list domainList
	path := fmt.Sprintf("/domains?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		return nil, err
	}
	return list.Members, nil
}

// CreateAccount registers a new mailbox account with the provider.
func (c *Client) CreateAccount(ctx context.Context, address, password string) (Account, error) {
	var acct Account
	body := accountRequest{Address: address, Password: password}
	if err := c.do(ctx, http.MethodPost, "/accounts", "", body, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Authenticate exchanges address credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, address, password string) (Token, error) {
	var tok Token
	body := accountRequest{Address: address, Password: password}
	if err := c.do(ctx, http.MethodPost, "/token", "", body, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// GetAccount fetches the current account state for the given id.
func (c *Client) GetAccount(ctx context.Context, id, token string) (Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/accounts/"+id, token, nil, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// DeleteAccount removes the account from the provider.
func (c *Client) DeleteAccount(ctx context.Context, id, token string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/"+id, token, nil, nil)
}

// ListMessages returns a page of message summaries for the authenticated
// mailbox. Summaries carry no bodies; see GetMessage.
func (c *Client) ListMessages(ctx context.Context, token string, page int) ([]model.Message, error) {
	var list messageList
	path := fmt.Sprintf("/messages?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &list); err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(list.Members))
	for _, p := range list.Members {
		msgs = append(msgs, p.toModel())
	}
	return msgs, nil
}

// GetMessage fetches the complete form of a single message, including
// text and html bodies and attachment metadata.
func (c *Client) GetMessage(ctx context.Context, id, token string) (model.Message, error) {
	var p messagePayload
	if err := c.do(ctx, http.MethodGet, "/messages/"+id, token, nil, &p); err != nil {
		return model.Message{}, err
	}
	return p.toModel(), nil
}

// SetMessageSeen updates the seen flag of a message via merge-patch.
func (c *Client) SetMessageSeen(ctx context.Context, id, token string, seen bool) error {
	return c.doWithContentType(
		ctx, http.MethodPatch, "/messages/"+id, token,
		contentTypeMergePatch, seenPatch{Seen: seen}, nil,
	)
}

// DeleteMessage removes a message from the remote mailbox.
func (c *Client) DeleteMessage(ctx context.Context, id, token string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+id, token, nil, nil)
}

// GetMessageSource fetches the raw RFC 822 source of a message.
func (c *Client) GetMessageSource(ctx context.Context, id, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sources/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, respBody)
	}

	// The source endpoint wraps the raw message in a JSON envelope.
	var src struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(respBody, &src); err != nil {
		return nil, c.decodeError("/sources/"+id, err)
	}
	return []byte(src.Data), nil
}

// do performs a JSON request against the API.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	token string,
	body interface{},
	result interface{},
) error {
	return c.doWithContentType(ctx, method, path, token, contentTypeJSON, body, result)
}

// doWithContentType builds and executes a single HTTP request, maps the
// response status to a typed error, and decodes a 2xx body into result.
func (c *Client) doWithContentType(
	ctx context.Context,
	method string,
	path string,
	token string,
	contentType string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &Error{Kind: KindNetwork, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return c.decodeError(path, err)
	}

	return nil
}

// decodeError wraps an undecodable 2xx body. Logged at warn so schema
// drift from the provider shows up in diagnostics.
func (c *Client) decodeError(path string, err error) error {
	c.log.WithError(err).WithField("path", path).
		Warn("Undecodable response body from provider")
	return &Error{Kind: KindDecode, Err: err}
}

// statusError maps a non-2xx status to a typed error, pulling detail out
// of the provider's error body when present.
func statusError(status int, body []byte) error {
	apiErr := &Error{StatusCode: status, Message: errorDetail(body)}

	switch {
	case status == http.StatusBadRequest:
		apiErr.Kind = KindInvalidRequest
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindAuthRequired
	case status == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
	case status >= 500 && status <= 599:
		apiErr.Kind = KindServer
	default:
		apiErr.Kind = KindHTTP
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}

	return apiErr
}

// errorDetail extracts a human-readable message from a provider error
// body, which may be a Hydra or an RFC 7807 problem document.
func errorDetail(body []byte) string {
	var payload struct {
		Message     string `json:"message"`
		Detail      string `json:"detail"`
		Description string `json:"hydra:description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, msg := range []string{payload.Message, payload.Detail, payload.Description} {
		if msg != "" {
			return msg
		}
	}
	return ""
}
