package postgres

import (
	"context"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, ev *domain.AuditEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (id, merchant_id, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.MerchantID, string(ev.Action), ev.ResourceType,
		ev.ResourceID, ev.Details, ev.IPAddress, ev.CreatedAt,
	)
	return err
}
