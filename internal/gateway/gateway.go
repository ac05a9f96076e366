// Package gateway issues write calls against the inventory backend.
//
// Functions here never read or write the resource cache. Callers revalidate
// the affected keys once a write succeeds.
package gateway

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
)

// Sender performs one backend call and decodes the envelope data into out.
type Sender interface {
	Send(ctx context.Context, method, path string, payload any, out any) (*apiclient.Envelope, error)
}

// Gateway groups the per-entity write operations.
type Gateway struct {
	api Sender
}

// New constructs a Gateway on top of api.
func New(api Sender) *Gateway {
	return &Gateway{api: api}
}

func (g *Gateway) create(ctx context.Context, path string, payload any, out any) error {
	_, err := g.api.Send(ctx, http.MethodPost, path, payload, out)
	return err
}

func (g *Gateway) update(ctx context.Context, path string, payload any, out any) error {
	_, err := g.api.Send(ctx, http.MethodPut, path, payload, out)
	return err
}

// remove forwards the backend error unchanged, so deleting an already
// deleted record surfaces the not-found error to the caller.
func (g *Gateway) remove(ctx context.Context, path string) error {
	_, err := g.api.Send(ctx, http.MethodDelete, path, nil, nil)
	return err
}
