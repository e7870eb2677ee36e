package repo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teeck111/bmc/internal/domain"
)

// ClubPasswordHeader carries the shared club secret on proxy calls.
const ClubPasswordHeader = "X-Club-Password"

// ProxyConfig points a ProxyStore at a remote instance of the trip API.
type ProxyConfig struct {
	BaseURL      string
	ClubPassword string
	Timeout      time.Duration
}

// ProxyStore implements TripRepo by calling the /trips endpoints of a remote
// server that holds the real store credentials. The remote side assigns
// its own id and timestamps on create.
type ProxyStore struct {
	client *resty.Client
}

// NewProxyStore builds a ProxyStore.
func NewProxyStore(cfg ProxyConfig) *ProxyStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader(ClubPasswordHeader, cfg.ClubPassword).
		SetHeader("Content-Type", "application/json")
	return &ProxyStore{client: cli}
}

// ProxyListResponse is the body of GET /trips.
type ProxyListResponse struct {
	Trips []domain.Trip `json:"trips"`
}

// ProxyTripResponse is the body of POST and PUT /trips.
type ProxyTripResponse struct {
	Success bool        `json:"success"`
	Trip    domain.Trip `json:"trip"`
	Message string      `json:"message,omitempty"`
}

// ProxyDeleteResponse is the body of DELETE /trips.
type ProxyDeleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	DeletedID string `json:"deletedId"`
}

// ProxyUpdateRequest is the body of PUT /trips: the id next to the patch fields.
type ProxyUpdateRequest struct {
	ID string `json:"id"`
	domain.TripPatch
}

// ProxyDeleteRequest is the body of DELETE /trips.
type ProxyDeleteRequest struct {
	ID string `json:"id"`
}

func (p *ProxyStore) List(ctx context.Context) ([]domain.Trip, error) {
	var out ProxyListResponse
	resp, err := p.client.R().SetContext(ctx).SetResult(&out).Get("/trips")
	if err != nil {
		return nil, fmt.Errorf("repo.ProxyStore.List: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapProxyError(resp); err != nil {
		return nil, fmt.Errorf("repo.ProxyStore.List: %w", err)
	}
	if out.Trips == nil {
		out.Trips = []domain.Trip{}
	}
	return out.Trips, nil
}

func (p *ProxyStore) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	var out ProxyTripResponse
	resp, err := p.client.R().SetContext(ctx).SetBody(trip).SetResult(&out).Post("/trips")
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.ProxyStore.Create: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapProxyError(resp); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.ProxyStore.Create: %w", err)
	}
	return out.Trip, nil
}

func (p *ProxyStore) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	var out ProxyTripResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(ProxyUpdateRequest{ID: id, TripPatch: patch}).
		SetResult(&out).
		Put("/trips")
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.ProxyStore.Update: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapProxyError(resp); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.ProxyStore.Update: %w", err)
	}
	return out.Trip, nil
}

func (p *ProxyStore) Delete(ctx context.Context, id string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(ProxyDeleteRequest{ID: id}).
		Delete("/trips")
	if err != nil {
		return fmt.Errorf("repo.ProxyStore.Delete: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapProxyError(resp); err != nil {
		return fmt.Errorf("repo.ProxyStore.Delete: %w", err)
	}
	return nil
}

func mapProxyError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, body)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, body)
	default:
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("%w: http %d: %s", domain.ErrUnavailable, resp.StatusCode(), body)
	}
}
