// Package river runs the workflow's asynchronous jobs on a River queue
// sharing the service's SQLite database.
package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// Compile-time checks: Publisher implements the async ports.
var (
	_ domain.Notifier    = (*Publisher)(nil)
	_ domain.RenderQueue = (*Publisher)(nil)
)

// NotificationJobArgs carries a notification intent through the queue. The
// payload is a snapshot taken at publish time, so the worker never reads
// the database.
type NotificationJobArgs struct {
	NotificationKind string            `json:"notification_kind"`
	TransferID       string            `json:"transfer_id"`
	TenantID         string            `json:"tenant_id"`
	Payload          map[string]string `json:"payload"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "notification.send" }

// RenderJobArgs identifies the transfer whose order document needs
// rendering. The worker reloads the transfer, so a stale snapshot cannot
// produce a document for a state that no longer holds.
type RenderJobArgs struct {
	TransferID string `json:"transfer_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (RenderJobArgs) Kind() string { return "transfer.render_order" }

// SweepJobArgs triggers one pass of the token expiry sweep. It carries no
// data; the sweep derives its work from the database.
type SweepJobArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (SweepJobArgs) Kind() string { return "transfer.sweep_expired" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher enqueues River jobs for notifications and order rendering.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Notify enqueues a notification delivery job.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	_, err := p.client.Insert(ctx, NotificationJobArgs{
		NotificationKind: n.Kind,
		TransferID:       n.TransferID,
		TenantID:         n.TenantID,
		Payload:          n.Payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}

// EnqueueRender enqueues an order document rendering job.
func (p *Publisher) EnqueueRender(ctx context.Context, transferID string) error {
	_, err := p.client.Insert(ctx, RenderJobArgs{TransferID: transferID}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing render job: %w", err)
	}
	return nil
}
