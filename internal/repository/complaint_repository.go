package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	ResidentID  *string
	SitioID     *string
	Category    *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintSelect = `
        SELECT c.id, c.resident_id, c.title, c.category, c.date_of_report, c.location_of_incident,
               c.complaint_content, c.priority, c.priority_risk_category, c.sitio_id, c.status,
               c.resolution_note, c.resolved_by, c.resolved_at, c.resolution_image, c.created_at, c.updated_at,
               res.name, res.email, res.role,
               rb.name, rb.email
        FROM complaints c
        JOIN users res ON res.id = c.resident_id
        LEFT JOIN users rb ON rb.id = c.resolved_by`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (resident_id, title, category, date_of_report, location_of_incident,
            complaint_content, priority, priority_risk_category, sitio_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		complaint.ResidentID,
		complaint.Title,
		complaint.Category,
		complaint.DateOfReport,
		complaint.LocationOfIncident,
		complaint.Content,
		complaint.Priority,
		complaint.PriorityRiskCategory,
		complaint.SitioID,
		complaint.Status,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET priority=$1, priority_risk_category=$2, status=$3, resolution_note=$4,
            resolved_by=$5, resolved_at=$6, resolution_image=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		complaint.Priority,
		complaint.PriorityRiskCategory,
		complaint.Status,
		complaint.ResolutionNote,
		complaint.ResolvedBy,
		complaint.ResolvedAt,
		complaint.ResolutionImage,
		complaint.ID,
	).Scan(&complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return scanComplaint(conn(ctx, r.pool).QueryRow(ctx, complaintSelect+` WHERE c.id=$1`, id))
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ResidentID != nil {
		args = append(args, *filter.ResidentID)
		clauses = append(clauses, fmt.Sprintf("c.resident_id=$%d", len(args)))
	}
	if filter.SitioID != nil {
		args = append(args, *filter.SitioID)
		clauses = append(clauses, fmt.Sprintf("c.sitio_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("c.category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(c.title) LIKE %s OR LOWER(c.complaint_content) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC%s`,
		complaintSelect, strings.Join(clauses, " AND "), pageClause(filter.Limit, filter.Offset))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var (
		complaint                   domain.Complaint
		resident                    domain.UserSummary
		resolverName, resolverEmail *string
	)
	if err := row.Scan(
		&complaint.ID,
		&complaint.ResidentID,
		&complaint.Title,
		&complaint.Category,
		&complaint.DateOfReport,
		&complaint.LocationOfIncident,
		&complaint.Content,
		&complaint.Priority,
		&complaint.PriorityRiskCategory,
		&complaint.SitioID,
		&complaint.Status,
		&complaint.ResolutionNote,
		&complaint.ResolvedBy,
		&complaint.ResolvedAt,
		&complaint.ResolutionImage,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&resident.Name,
		&resident.Email,
		&resident.Role,
		&resolverName,
		&resolverEmail,
	); err != nil {
		return nil, err
	}
	resident.ID = complaint.ResidentID
	complaint.Resident = &resident
	if complaint.ResolvedBy != nil && resolverName != nil {
		complaint.Resolver = &domain.UserSummary{ID: *complaint.ResolvedBy, Name: *resolverName}
		if resolverEmail != nil {
			complaint.Resolver.Email = *resolverEmail
		}
	}
	return &complaint, nil
}
