package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// Sweeper is the slice of the workflow engine the sweep worker needs.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// NotificationWorker delivers notification intents. For now it logs the
// delivery; the actual channel (email, push) plugs in here.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	slog.InfoContext(ctx, "delivering notification",
		"kind", job.Args.NotificationKind,
		"transfer_id", job.Args.TransferID,
		"tenant_id", job.Args.TenantID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// RenderWorker produces the printable order document for an issued
// transfer. The confirmation signature is recomputed from the signing
// secret; it is never stored.
type RenderWorker struct {
	river.WorkerDefaults[RenderJobArgs]

	Store    domain.Store
	Signer   domain.TokenSigner
	Renderer domain.OrderRenderer
}

// Work renders the order document for one transfer and records its handle.
func (w *RenderWorker) Work(ctx context.Context, job *river.Job[RenderJobArgs]) error {
	tr, err := w.Store.Transfers().GetByID(ctx, job.Args.TransferID)
	if err != nil {
		return fmt.Errorf("loading transfer for render: %w", err)
	}
	if tr.TokenID == "" {
		return fmt.Errorf("transfer %s has no confirmation token", tr.ID)
	}

	signature := w.Signer.Signature(tr.TokenID, tr.ID, tr.TokenIssuedAt, tr.TokenExpiresAt)
	handle, err := w.Renderer.Render(ctx, tr, signature)
	if err != nil {
		return fmt.Errorf("rendering order document: %w", err)
	}

	if err := w.Store.Transfers().SetOrderDocument(ctx, tr.ID, handle); err != nil {
		return fmt.Errorf("recording order document: %w", err)
	}

	slog.InfoContext(ctx, "order document rendered",
		"transfer_id", tr.ID,
		"order_number", tr.OrderNumber,
		"job_id", job.ID,
	)
	return nil
}

// SweepWorker runs one pass of the token expiry sweep.
type SweepWorker struct {
	river.WorkerDefaults[SweepJobArgs]

	Engine Sweeper
}

// Work rejects transfers whose confirmation tokens have expired.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepJobArgs]) error {
	swept, err := w.Engine.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sweeping expired transfers: %w", err)
	}
	if swept > 0 {
		slog.InfoContext(ctx, "expired transfers swept", "count", swept, "job_id", job.ID)
	}
	return nil
}
