package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/database"
)

type sitePhotoRepository struct {
	db *database.DB
}

func NewSitePhotoRepository(db *database.DB) sitephoto.ConfirmationRepository {
	return &sitePhotoRepository{db: db}
}

// Create implements sitephoto.ConfirmationRepository.
func (r *sitePhotoRepository) Create(ctx context.Context, confirmation sitephoto.Confirmation) (sitephoto.Confirmation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO site_photo_confirmations (
			id, tenant_id, employee_id, site_id, date,
			captured_at, has_image, has_signature, photo_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		confirmation.ID, confirmation.TenantID, confirmation.EmployeeID,
		confirmation.SiteID, confirmation.Date, confirmation.CapturedAt,
		confirmation.HasImage, confirmation.HasSignature, confirmation.PhotoURL,
	).Scan(&confirmation.CreatedAt)
	if err != nil {
		return sitephoto.Confirmation{}, fmt.Errorf("failed to create confirmation: %w", err)
	}

	return confirmation, nil
}

// ListByKey implements sitephoto.ConfirmationRepository.
func (r *sitePhotoRepository) ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]sitephoto.Confirmation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id, date,
			   captured_at, has_image, has_signature, photo_url, created_at
		FROM site_photo_confirmations
		WHERE tenant_id = $1
		  AND employee_id = $2
		  AND site_id = $3
		  AND date = $4
		ORDER BY captured_at
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, siteID, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations by key: %w", err)
	}
	defer rows.Close()

	return scanConfirmations(rows)
}

// ListForTenantDate implements sitephoto.ConfirmationRepository.
func (r *sitePhotoRepository) ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]sitephoto.Confirmation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id, date,
			   captured_at, has_image, has_signature, photo_url, created_at
		FROM site_photo_confirmations
		WHERE tenant_id = $1
		  AND date = $2
		ORDER BY employee_id, site_id, captured_at
	`

	rows, err := q.Query(ctx, query, tenantID, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations for tenant: %w", err)
	}
	defer rows.Close()

	return scanConfirmations(rows)
}

func scanConfirmations(rows pgx.Rows) ([]sitephoto.Confirmation, error) {
	var confirmations []sitephoto.Confirmation
	for rows.Next() {
		var c sitephoto.Confirmation
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.EmployeeID, &c.SiteID, &c.Date,
			&c.CapturedAt, &c.HasImage, &c.HasSignature, &c.PhotoURL, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		confirmations = append(confirmations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate confirmations: %w", err)
	}
	return confirmations, nil
}
