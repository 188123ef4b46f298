package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"gym-buddy/internal/models"
)

// Profiles is the remote profile store.
type Profiles struct {
	c *Client
}

// NewProfiles creates a profile store bound to c.
func NewProfiles(c *Client) *Profiles {
	return &Profiles{c: c}
}

func profilePath(id string) string {
	return "/api/v1/profiles/" + url.PathEscape(id)
}

// notFound maps a 404 to models.ErrProfileNotFound.
func notFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return models.ErrProfileNotFound
	}
	return err
}

// Get fetches one profile.
func (p *Profiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.c.do(ctx, http.MethodGet, profilePath(id), nil, &profile); err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// Put creates or replaces the caller's own profile.
func (p *Profiles) Put(ctx context.Context, profile *models.Profile) error {
	return p.c.do(ctx, http.MethodPut, profilePath(profile.ID), profile, nil)
}

// Patch applies a partial update and returns the stored result.
func (p *Profiles) Patch(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	var profile models.Profile
	if err := p.c.do(ctx, http.MethodPatch, profilePath(id), patch, &profile); err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// List returns every profile.
func (p *Profiles) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := p.c.do(ctx, http.MethodGet, "/api/v1/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
