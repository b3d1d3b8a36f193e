package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Roboflow Client
// ============================================================

const maxResponseSize = 32 << 20

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Version    string
	Confidence int
	Timeout    time.Duration
}

// Client вызывает хостинговую модель детекции. Ретраев нет: один запрос на анализ.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Configured сообщает, задан ли API ключ.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Detect отправляет картинку (base64 в теле) и возвращает сырой JSON ответа.
func (c *Client) Detect(ctx context.Context, image []byte) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrServiceConfiguration
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, &ServiceError{Kind: ErrServiceConfiguration, Err: err}
	}

	body := base64.StdEncoding.EncodeToString(image)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Kind: ErrServiceCallFailed, Err: redactURL(err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Printf("[INFERENCE] POST %s/%s (image %d bytes, confidence %d)", c.cfg.Model, c.cfg.Version, len(image), c.cfg.Confidence)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ServiceError{Kind: ErrServiceCallFailed, Err: redactURL(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ServiceError{Kind: ErrServiceCallFailed, Status: resp.StatusCode, Err: err}
	}

	log.Printf("[INFERENCE] status %d in %s (%d bytes)", resp.StatusCode, time.Since(start).Round(time.Millisecond), len(data))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Details: upstreamMessage(data),
		}
	}

	return data, nil
}

func (c *Client) endpoint() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", c.cfg.BaseURL)
	}
	if c.cfg.Model == "" || c.cfg.Version == "" {
		return "", fmt.Errorf("model and version required")
	}

	base = base.JoinPath(c.cfg.Model, c.cfg.Version)
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("confidence", strconv.Itoa(c.cfg.Confidence))
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// upstreamMessage достаёт текст ошибки: message/error из JSON или сам текст.
func upstreamMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch v := body.Error.(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}

// redactURL убирает query из *url.Error: там лежит api_key, а текст
// ошибки попадает в логи и в ответ клиенту.
func redactURL(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	} else {
		redacted.URL = ""
	}
	return &redacted
}
