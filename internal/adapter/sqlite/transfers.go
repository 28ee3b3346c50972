package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

type transferRepo struct {
	q querier
}

const transferColumns = `id, order_number,
	origin_tenant_id, origin_sub_unit_id, dest_tenant_id, dest_sub_unit_id,
	requested_by, approved_by, reason, priority, notes, state,
	token_id, token_issued_at, token_expires_at,
	departure_actor, departure_at, receipt_actor, receipt_at,
	requested_at, approved_at, issued_at, departed_at, completed_at, updated_at,
	order_document`

func (r *transferRepo) Create(ctx context.Context, t domain.TransferRequest) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO transfers (id, order_number,
		 origin_tenant_id, origin_sub_unit_id, dest_tenant_id, dest_sub_unit_id,
		 requested_by, reason, priority, notes, state, requested_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrderNumber,
		t.OriginTenantID, t.OriginSubUnitID, t.DestTenantID, t.DestSubUnitID,
		t.RequestedBy, t.Reason, string(t.Priority), t.Notes, string(t.State),
		t.RequestedAt.Format(timeFormat), t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order number %q already exists: %w", t.OrderNumber, err)
		}
		return fmt.Errorf("inserting transfer: %w", err)
	}

	for i, l := range t.Lines {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO transfer_lines (transfer_id, position, asset_id, sku, requested, approved)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, i, l.AssetID, l.SKU, l.Requested, l.Approved,
		)
		if err != nil {
			return fmt.Errorf("inserting transfer line: %w", err)
		}
	}
	return nil
}

func (r *transferRepo) GetByID(ctx context.Context, id string) (domain.TransferRequest, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id)
}

func (r *transferRepo) GetByToken(ctx context.Context, tokenID string) (domain.TransferRequest, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE token_id = ?`, tokenID)
}

func (r *transferRepo) get(ctx context.Context, query, arg string) (domain.TransferRequest, error) {
	t, err := scanTransfer(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.TransferRequest{}, err
	}
	t.Lines, err = r.lines(ctx, t.ID)
	if err != nil {
		return domain.TransferRequest{}, err
	}
	return t, nil
}

func (r *transferRepo) List(ctx context.Context, filter domain.TransferFilter) ([]domain.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers`
	var conds []string
	var args []any

	if filter.TenantID != "" {
		conds = append(conds, `(origin_tenant_id = ? OR dest_tenant_id = ?)`)
		args = append(args, filter.TenantID, filter.TenantID)
	}
	if filter.State != nil {
		conds = append(conds, `state = ?`)
		args = append(args, string(*filter.State))
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}

	query += ` ORDER BY requested_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.TransferRequest
	for rows.Next() {
		t, err := scanTransferFromRows(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transfers {
		transfers[i].Lines, err = r.lines(ctx, transfers[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

// Transition performs the compare-and-set state change. The WHERE clause
// pins the expected current state; zero affected rows means either the
// transfer is gone or another writer moved it first, distinguished by a
// re-read.
func (r *transferRepo) Transition(ctx context.Context, id string, event domain.Event, from, to domain.State, patch domain.TransferPatch) error {
	now := time.Now().UTC().Format(timeFormat)

	set := `state = ?, updated_at = ?`
	args := []any{string(to), now}

	switch event {
	case domain.EventApprove:
		set += `, approved_at = ?`
		args = append(args, now)
	case domain.EventIssue:
		set += `, issued_at = ?`
		args = append(args, now)
	case domain.EventDepart:
		set += `, departed_at = ?`
		args = append(args, now)
	case domain.EventReceive:
		set += `, completed_at = ?`
		args = append(args, now)
	}

	if patch.ApprovedBy != nil {
		set += `, approved_by = ?`
		args = append(args, *patch.ApprovedBy)
	}
	if patch.Reason != nil {
		set += `, reason = ?`
		args = append(args, *patch.Reason)
	}
	if patch.TokenID != nil {
		set += `, token_id = ?, token_issued_at = ?, token_expires_at = ?`
		args = append(args,
			*patch.TokenID,
			patch.TokenIssuedAt.Format(timeFormat),
			patch.TokenExpiresAt.Format(timeFormat),
		)
	}
	if patch.DepartureSignature != nil {
		set += `, departure_actor = ?, departure_at = ?`
		args = append(args, patch.DepartureSignature.Actor, patch.DepartureSignature.At.Format(timeFormat))
	}
	if patch.ReceiptSignature != nil {
		set += `, receipt_actor = ?, receipt_at = ?`
		args = append(args, patch.ReceiptSignature.Actor, patch.ReceiptSignature.At.Format(timeFormat))
	}

	args = append(args, id, string(from))
	result, err := r.q.ExecContext(ctx,
		`UPDATE transfers SET `+set+` WHERE id = ? AND state = ?`, args...)
	if err != nil {
		return fmt.Errorf("transitioning transfer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		cur, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &domain.WrongStateError{Event: event, Current: cur.State}
	}

	if patch.ApprovedLines != nil {
		for _, l := range patch.ApprovedLines {
			_, err := r.q.ExecContext(ctx,
				`UPDATE transfer_lines SET approved = ? WHERE transfer_id = ? AND asset_id = ?`,
				l.Approved, id, l.AssetID,
			)
			if err != nil {
				return fmt.Errorf("updating transfer line: %w", err)
			}
		}
	}
	return nil
}

func (r *transferRepo) NextOrderSeq(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE order_number LIKE ? || '%'`, prefix,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count + 1, nil
}

func (r *transferRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.TransferRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		 WHERE state = ? AND token_expires_at < ?`,
		string(domain.StateOrderIssued), now.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("listing expired transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.TransferRequest
	for rows.Next() {
		t, err := scanTransferFromRows(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transfers {
		transfers[i].Lines, err = r.lines(ctx, transfers[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

func (r *transferRepo) SetOrderDocument(ctx context.Context, id, handle string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE transfers SET order_document = ?, updated_at = ? WHERE id = ?`,
		handle, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("setting order document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

func (r *transferRepo) lines(ctx context.Context, transferID string) ([]domain.Line, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT asset_id, sku, requested, approved
		 FROM transfer_lines WHERE transfer_id = ? ORDER BY position`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transfer lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.AssetID, &l.SKU, &l.Requested, &l.Approved); err != nil {
			return nil, fmt.Errorf("scanning transfer line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type transferScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row *sql.Row) (domain.TransferRequest, error) {
	t, err := scanTransferColumns(row)
	if err == sql.ErrNoRows {
		return domain.TransferRequest{}, domain.ErrTransferNotFound
	}
	return t, err
}

func scanTransferFromRows(rows *sql.Rows) (domain.TransferRequest, error) {
	return scanTransferColumns(rows)
}

func scanTransferColumns(s transferScanner) (domain.TransferRequest, error) {
	var t domain.TransferRequest
	var priority, state, requestedAt, updatedAt string
	var tokenID, tokenIssued, tokenExpires sql.NullString
	var depActor, depAt, recActor, recAt sql.NullString
	var approvedAt, issuedAt, departedAt, completedAt sql.NullString

	err := s.Scan(&t.ID, &t.OrderNumber,
		&t.OriginTenantID, &t.OriginSubUnitID, &t.DestTenantID, &t.DestSubUnitID,
		&t.RequestedBy, &t.ApprovedBy, &t.Reason, &priority, &t.Notes, &state,
		&tokenID, &tokenIssued, &tokenExpires,
		&depActor, &depAt, &recActor, &recAt,
		&requestedAt, &approvedAt, &issuedAt, &departedAt, &completedAt, &updatedAt,
		&t.OrderDocument,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.TransferRequest{}, err
		}
		return domain.TransferRequest{}, fmt.Errorf("scanning transfer: %w", err)
	}

	t.Priority = domain.Priority(priority)
	t.State = domain.State(state)
	t.RequestedAt, _ = time.Parse(timeFormat, requestedAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	t.ApprovedAt = parseNullTime(approvedAt)
	t.IssuedAt = parseNullTime(issuedAt)
	t.DepartedAt = parseNullTime(departedAt)
	t.CompletedAt = parseNullTime(completedAt)

	if tokenID.Valid {
		t.TokenID = tokenID.String
		t.TokenIssuedAt = parseNullTime(tokenIssued)
		t.TokenExpiresAt = parseNullTime(tokenExpires)
	}
	if depActor.Valid {
		t.DepartureSignature = &domain.Signature{Actor: depActor.String, At: parseNullTime(depAt)}
	}
	if recActor.Valid {
		t.ReceiptSignature = &domain.Signature{Actor: recActor.String, At: parseNullTime(recAt)}
	}

	return t, nil
}

func parseNullTime(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, v.String)
	return t
}
