package proxy

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// hopHeaders не пересылаются ни в одну сторону.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
	"Host":                true,
}

const requestIDHeader = "X-Request-ID"

type Proxy struct {
	target string
	client *http.Client
}

// New создаёт прокси к сервису по базовому URL (без завершающего слэша).
func New(target string, timeout time.Duration) *Proxy {
	return &Proxy{
		target: strings.TrimRight(target, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Handler пересылает запрос с тем же путём и query на целевой сервис.
// Тело (включая multipart) уходит без перекодирования.
func (p *Proxy) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, p.target+c.OriginalURL())
	}
}

// Forward проксирует запрос по переданному URL (для динамических путей).
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] Request: %s %s", c.Method(), c.Path())
	log.Printf("[PROXY] Content-Type: %s", c.Get("Content-Type"))
	log.Printf("[PROXY] Content-Length: %d", len(c.Body()))
	log.Printf("[PROXY] Forwarding to: %s", targetURL)

	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}

	req, err := http.NewRequestWithContext(context.Background(), c.Method(), targetURL, body)
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	for key, value := range c.GetReqHeaders() {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range value {
			req.Header.Add(key, v)
		}
	}

	if req.Header.Get(requestIDHeader) == "" {
		if rid := c.GetRespHeader(requestIDHeader); rid != "" {
			req.Header.Set(requestIDHeader, rid)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if hopHeaders[key] {
			continue
		}
		for i, v := range values {
			if i == 0 {
				c.Set(key, v)
			} else {
				c.Append(key, v)
			}
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
