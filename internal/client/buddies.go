package client

import (
	"context"
	"net/http"
	"net/url"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/models"
)

// RequestDirection selects which pending requests ListRequests returns.
type RequestDirection string

const (
	Received RequestDirection = "received"
	Sent     RequestDirection = "sent"
)

// Buddies wraps the buddy request endpoints.
type Buddies struct {
	c *Client
}

// NewBuddies creates a buddy client bound to c.
func NewBuddies(c *Client) *Buddies {
	return &Buddies{c: c}
}

func (b *Buddies) SendRequest(ctx context.Context, recipientID string) error {
	return b.c.do(ctx, http.MethodPost, "/api/v1/buddy-requests", imtypes.SendBuddyRequestPayload{RecipientID: recipientID}, nil)
}

func (b *Buddies) AcceptRequest(ctx context.Context, requesterID string) error {
	return b.c.do(ctx, http.MethodPost, "/api/v1/buddy-requests/"+url.PathEscape(requesterID)+"/accept", nil, nil)
}

func (b *Buddies) RejectRequest(ctx context.Context, requesterID string) error {
	return b.c.do(ctx, http.MethodPost, "/api/v1/buddy-requests/"+url.PathEscape(requesterID)+"/reject", nil, nil)
}

// ListBuddies returns the caller's accepted buddies.
func (b *Buddies) ListBuddies(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	if err := b.c.do(ctx, http.MethodGet, "/api/v1/buddies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRequests returns the profiles behind the caller's pending requests.
func (b *Buddies) ListRequests(ctx context.Context, dir RequestDirection) ([]models.Profile, error) {
	var out []models.Profile
	if err := b.c.do(ctx, http.MethodGet, "/api/v1/buddy-requests?direction="+url.QueryEscape(string(dir)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the caller's relationship with otherID.
func (b *Buddies) Status(ctx context.Context, otherID string) (models.RelationshipStatus, error) {
	var resp imtypes.StatusResponse
	if err := b.c.do(ctx, http.MethodGet, "/api/v1/buddies/status/"+url.PathEscape(otherID), nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
