// Package ratingapi is the engine's transport to the marketplace rating
// service. Read paths go through an ordered list of candidate endpoints
// because several back-end shapes have been live at different times; the
// first one that answers is taken as canonical.
package ratingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/identity"
)

// maxResponseBody caps how much of a reply is read. 1 MiB.
const maxResponseBody = 1 << 20

var readCandidates = map[domain.TargetType][]string{
	domain.TargetItem:   {"/ratings/listing/%s", "/ratings/item/%s", "/listings/%s/ratings"},
	domain.TargetOwner:  {"/owner-ratings/owner/%s", "/owner-ratings/seller/%s", "/ratings/owner/%s"},
	domain.TargetRenter: {"/renter-ratings/renter/%s", "/ratings/renter/%s"},
}

var mutationBase = map[domain.TargetType]string{
	domain.TargetItem:   "/ratings",
	domain.TargetOwner:  "/owner-ratings",
	domain.TargetRenter: "/renter-ratings",
}

var targetField = map[domain.TargetType]string{
	domain.TargetItem:   "listingId",
	domain.TargetOwner:  "ownerId",
	domain.TargetRenter: "renterId",
}

// SubmitPayload carries the user-entered fields of a create or update.
type SubmitPayload struct {
	Score          int
	Comment        string
	CategoryScores map[string]int
}

// Client defines the contract for talking to the rating service.
type Client interface {
	List(ctx context.Context, target domain.TargetRef) ([]domain.Rating, error)
	Create(ctx context.Context, target domain.TargetRef, payload SubmitPayload) (domain.Rating, error)
	Update(ctx context.Context, target domain.TargetRef, ratingID string, payload SubmitPayload) (domain.Rating, error)
	Delete(ctx context.Context, target domain.TargetRef, ratingID string) error
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	tokens  identity.TokenSource
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs an HTTP-backed rating service client. tokens may
// be nil for anonymous read-only use.
func NewHTTPClient(baseURL string, tokens identity.TokenSource, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse rating service url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		tokens:  tokens,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// List resolves the target's rating list. A 404 from any candidate means the
// canonical endpoint replied negatively: the target has no ratings, and the
// remaining candidates are not tried. Exhausting every candidate returns
// ErrResolutionFailed so callers can show a retry affordance instead of an
// empty state.
func (c *HTTPClient) List(ctx context.Context, target domain.TargetRef) ([]domain.Rating, error) {
	candidates, ok := readCandidates[target.Type]
	if !ok {
		return nil, fmt.Errorf("ratingapi: unknown target type %q", target.Type)
	}

	for _, template := range candidates {
		path := fmt.Sprintf(template, url.PathEscape(target.ID))
		status, body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			c.logger.Warn("rating read candidate unreachable",
				zap.String("path", path), zap.Error(err))
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return decodeRatingList(body, target)
		case status == http.StatusNotFound:
			return []domain.Rating{}, nil
		default:
			c.logger.Warn("rating read candidate rejected",
				zap.String("path", path), zap.Int("status", status))
		}
	}
	return nil, ErrResolutionFailed
}

// Create submits a new rating for the target.
func (c *HTTPClient) Create(ctx context.Context, target domain.TargetRef, payload SubmitPayload) (domain.Rating, error) {
	body := buildBody(payload)
	body[targetField[target.Type]] = target.ID

	status, resp, err := c.do(ctx, http.MethodPost, mutationBase[target.Type], body)
	if err != nil {
		return domain.Rating{}, networkError(err)
	}
	if status < 200 || status >= 300 {
		return domain.Rating{}, classify(status, resp)
	}
	return decodeRating(resp, target)
}

// Update rewrites an existing rating in place. The update body omits the
// target field; the rating id fixes the record.
func (c *HTTPClient) Update(ctx context.Context, target domain.TargetRef, ratingID string, payload SubmitPayload) (domain.Rating, error) {
	path := mutationBase[target.Type] + "/" + url.PathEscape(ratingID)
	status, resp, err := c.do(ctx, http.MethodPut, path, buildBody(payload))
	if err != nil {
		return domain.Rating{}, networkError(err)
	}
	if status < 200 || status >= 300 {
		return domain.Rating{}, classify(status, resp)
	}
	return decodeRating(resp, target)
}

// Delete removes a rating by id.
func (c *HTTPClient) Delete(ctx context.Context, target domain.TargetRef, ratingID string) error {
	path := mutationBase[target.Type] + "/" + url.PathEscape(ratingID)
	status, resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return networkError(err)
	}
	if status < 200 || status >= 300 {
		return classify(status, resp)
	}
	return nil
}

func buildBody(payload SubmitPayload) map[string]interface{} {
	body := map[string]interface{}{
		"score":   payload.Score,
		"comment": payload.Comment,
	}
	for name, value := range payload.CategoryScores {
		if value > 0 {
			body[name] = value
		}
	}
	return body
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body map[string]interface{}) (int, []byte, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, payload, nil
}
