package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// AnnouncementFilter captures listing parameters.
type AnnouncementFilter struct {
	Status     *domain.AnnouncementStatus
	Audience   *domain.Audience
	SearchTerm *string
	Limit      int
	Offset     int
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *domain.Announcement) error
	Update(ctx context.Context, announcement *domain.Announcement) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	List(ctx context.Context, filter AnnouncementFilter) ([]domain.Announcement, error)
}

type announcementRepository struct {
	pool *pgxpool.Pool
}

// NewAnnouncementRepository constructs repository.
func NewAnnouncementRepository(pool *pgxpool.Pool) AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

const announcementColumns = `id, title, content, audience, selected_sitios, status, image, created_by,
        published_at, created_at, updated_at`

func (r *announcementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (title, content, audience, selected_sitios, status, image, created_by, published_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		a.Title,
		a.Content,
		a.Audience,
		sitioArray(a.SelectedSitios),
		a.Status,
		a.Image,
		a.CreatedBy,
		a.PublishedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *announcementRepository) Update(ctx context.Context, a *domain.Announcement) error {
	const query = `
        UPDATE announcements SET title=$1, content=$2, audience=$3, selected_sitios=$4, status=$5,
            image=$6, published_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		a.Title,
		a.Content,
		a.Audience,
		sitioArray(a.SelectedSitios),
		a.Status,
		a.Image,
		a.PublishedAt,
		a.ID,
	).Scan(&a.UpdatedAt)
}

func (r *announcementRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM announcements WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *announcementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id=$1`
	return scanAnnouncement(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *announcementRepository) List(ctx context.Context, filter AnnouncementFilter) ([]domain.Announcement, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Audience != nil {
		args = append(args, *filter.Audience)
		clauses = append(clauses, fmt.Sprintf("audience=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE %s ORDER BY COALESCE(published_at, created_at) DESC%s`,
		announcementColumns, strings.Join(clauses, " AND "), pageClause(filter.Limit, filter.Offset))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Content,
		&a.Audience,
		&a.SelectedSitios,
		&a.Status,
		&a.Image,
		&a.CreatedBy,
		&a.PublishedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func sitioArray(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
