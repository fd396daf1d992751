package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// PermissionRequestFilter narrows permission request listings.
type PermissionRequestFilter struct {
	UserID *string
	Status *domain.PermissionRequestStatus
	Limit  int
	Offset int
}

// PermissionRequestRepository persists profile change requests.
type PermissionRequestRepository interface {
	Create(ctx context.Context, request *domain.PermissionRequest) error
	// GetByID loads the request with its owner and reviewer expanded.
	GetByID(ctx context.Context, id string) (*domain.PermissionRequest, error)
	// GetForUpdate loads and row-locks the request; it must run inside a transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.PermissionRequest, error)
	List(ctx context.Context, filter PermissionRequestFilter) ([]domain.PermissionRequest, error)
	UpdateReview(ctx context.Context, request *domain.PermissionRequest) error
}

type permissionRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRequestRepository instantiates repository.
func NewPermissionRequestRepository(pool *pgxpool.Pool) PermissionRequestRepository {
	return &permissionRequestRepository{pool: pool}
}

const permissionRequestSelect = `
        SELECT pr.id, pr.user_id, pr.status, pr.current_value, pr.request_change_value, pr.reason,
               pr.reviewed_by, pr.reviewed_at, pr.review_notes, pr.created_at, pr.updated_at,
               o.name, o.email, o.role,
               rv.name, rv.email, rv.role
        FROM permission_requests pr
        JOIN users o ON o.id = pr.user_id
        LEFT JOIN users rv ON rv.id = pr.reviewed_by`

func (r *permissionRequestRepository) Create(ctx context.Context, request *domain.PermissionRequest) error {
	const query = `
        INSERT INTO permission_requests (user_id, status, current_value, request_change_value, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	current := request.CurrentValue
	if current == nil {
		current = map[string]any{}
	}
	return conn(ctx, r.pool).QueryRow(ctx, query,
		request.UserID,
		request.Status,
		current,
		request.RequestChangeValue,
		request.Reason,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *permissionRequestRepository) GetByID(ctx context.Context, id string) (*domain.PermissionRequest, error) {
	return scanPermissionRequest(conn(ctx, r.pool).QueryRow(ctx, permissionRequestSelect+` WHERE pr.id=$1`, id))
}

func (r *permissionRequestRepository) GetForUpdate(ctx context.Context, id string) (*domain.PermissionRequest, error) {
	const query = `
        SELECT id, user_id, status, current_value, request_change_value, reason,
               reviewed_by, reviewed_at, review_notes, created_at, updated_at
        FROM permission_requests WHERE id=$1
        FOR UPDATE`
	var req domain.PermissionRequest
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.UserID,
		&req.Status,
		&req.CurrentValue,
		&req.RequestChangeValue,
		&req.Reason,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.ReviewNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *permissionRequestRepository) List(ctx context.Context, filter PermissionRequestFilter) ([]domain.PermissionRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("pr.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("pr.status=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY pr.created_at DESC, pr.id DESC%s`,
		permissionRequestSelect, strings.Join(clauses, " AND "), pageClause(filter.Limit, filter.Offset))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.PermissionRequest{}
	for rows.Next() {
		req, err := scanPermissionRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *permissionRequestRepository) UpdateReview(ctx context.Context, request *domain.PermissionRequest) error {
	const query = `
        UPDATE permission_requests SET status=$1, reviewed_by=$2, reviewed_at=$3, review_notes=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		request.Status,
		request.ReviewedBy,
		request.ReviewedAt,
		request.ReviewNotes,
		request.ID,
	).Scan(&request.UpdatedAt)
}

func scanPermissionRequest(row pgx.Row) (*domain.PermissionRequest, error) {
	var (
		req                         domain.PermissionRequest
		owner                       domain.UserSummary
		reviewerName, reviewerEmail *string
		reviewerRole                *string
	)
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Status,
		&req.CurrentValue,
		&req.RequestChangeValue,
		&req.Reason,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.ReviewNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
		&owner.Name,
		&owner.Email,
		&owner.Role,
		&reviewerName,
		&reviewerEmail,
		&reviewerRole,
	); err != nil {
		return nil, err
	}
	owner.ID = req.UserID
	req.User = &owner
	if req.ReviewedBy != nil && reviewerName != nil {
		req.Reviewer = &domain.UserSummary{ID: *req.ReviewedBy, Name: *reviewerName}
		if reviewerEmail != nil {
			req.Reviewer.Email = *reviewerEmail
		}
		if reviewerRole != nil {
			req.Reviewer.Role = domain.Role(*reviewerRole)
		}
	}
	return &req, nil
}
