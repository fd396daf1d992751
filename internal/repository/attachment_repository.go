package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// AttachmentRepository persists complaint attachment metadata.
type AttachmentRepository interface {
	// CreateForComplaint stores every attachment of one complaint in a single
	// round trip, stamping ComplaintID, ID and CreatedAt on each element.
	CreateForComplaint(ctx context.Context, complaintID string, attachments []domain.Attachment) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) CreateForComplaint(ctx context.Context, complaintID string, attachments []domain.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	const query = `
        INSERT INTO complaint_attachments (complaint_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	batch := &pgx.Batch{}
	for i := range attachments {
		a := &attachments[i]
		a.ComplaintID = complaintID
		batch.Queue(query, complaintID, a.StorageKey, a.FileName, a.MimeType, a.SizeBytes).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&a.ID, &a.CreatedAt)
			})
	}
	if err := conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert attachments for complaint %s: %w", complaintID, err)
	}
	return nil
}

func (r *attachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, complaint_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM complaint_attachments WHERE complaint_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Attachment, error) {
		var a domain.Attachment
		err := row.Scan(&a.ID, &a.ComplaintID, &a.StorageKey, &a.FileName, &a.MimeType, &a.SizeBytes, &a.CreatedAt)
		return a, err
	})
}
