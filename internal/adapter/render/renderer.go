// Package render builds the artifacts printed on transfer order documents.
package render

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// Compile-time check: URLBuilder implements domain.OrderRenderer.
var _ domain.OrderRenderer = (*URLBuilder)(nil)

// URLBuilder renders an order document as a signed confirmation URL, the
// payload encoded into the QR code on the printed order. PDF layout and QR
// rasterization happen client-side from this URL.
type URLBuilder struct {
	baseURL string
}

// New creates a builder. baseURL is the public address of the
// confirmation gateway, without a trailing slash.
func New(baseURL string) *URLBuilder {
	return &URLBuilder{baseURL: baseURL}
}

// Render produces the signed confirmation URL for an issued transfer.
func (b *URLBuilder) Render(_ context.Context, tr domain.TransferRequest, signature string) (string, error) {
	if tr.TokenID == "" {
		return "", fmt.Errorf("transfer %s has no confirmation token", tr.ID)
	}

	q := url.Values{}
	q.Set("token", tr.TokenID)
	q.Set("sig", signature)
	q.Set("ts", strconv.FormatInt(tr.TokenIssuedAt.Unix(), 10))

	return b.baseURL + "/confirm?" + q.Encode(), nil
}
