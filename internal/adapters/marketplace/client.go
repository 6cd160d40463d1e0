package marketplace

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rentmatch/internal/adapters/observability"
	"rentmatch/internal/domain"
)

// Client talks to the remote marketplace backend. Reads are rate-limited
// client-side and retried on 429/transient 5xx with exponential backoff,
// honoring Retry-After when the server provides one.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = errors.New("marketplace: not found")
	ErrUnauthorized = errors.New("marketplace: unauthorized")
	ErrForbidden    = errors.New("marketplace: forbidden")
)

// GetAllPublished returns every published record. Stored records that fail to
// map are skipped, not surfaced.
func (c *Client) GetAllPublished(ctx context.Context) ([]domain.PropertyRecord, error) {
	var payloads []map[string]any
	if err := c.get(ctx, fmt.Sprintf("%s/v1/properties?status=published", c.base), "properties", &payloads); err != nil {
		return nil, translateErr(err)
	}
	return mapRecords(payloads), nil
}

func (c *Client) GetByOwner(ctx context.Context, ownerID int64) ([]domain.PropertyRecord, error) {
	var payloads []map[string]any
	if err := c.get(ctx, fmt.Sprintf("%s/v1/owners/%d/properties", c.base, ownerID), "owner_properties", &payloads); err != nil {
		return nil, translateErr(err)
	}
	return mapRecords(payloads), nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (domain.PropertyRecord, error) {
	var payload map[string]any
	if err := c.get(ctx, fmt.Sprintf("%s/v1/properties/%d", c.base, id), "property", &payload); err != nil {
		return domain.PropertyRecord{}, translateErr(err)
	}
	rec, ok := mapRecord(payload)
	if !ok {
		return domain.PropertyRecord{}, ErrNotFound
	}
	return rec, nil
}

// translateErr maps the client's 404 sentinel onto the domain sentinel so the
// port contract holds without leaking transport details.
func translateErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func mapRecords(payloads []map[string]any) []domain.PropertyRecord {
	out := make([]domain.PropertyRecord, 0, len(payloads))
	for _, p := range payloads {
		if rec, ok := mapRecord(p); ok {
			out = append(out, rec)
		}
	}
	return out
}

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx.
func (c *Client) get(ctx context.Context, url, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "rentmatch/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("marketplace", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles per attempt (200ms, 400ms, 800ms...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
