package service

import (
	"context"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit events are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an audit event asynchronously (fire-and-forget).
func (s *auditService) Log(ctx context.Context, event *domain.AuditEvent) {
	go func() {
		s.log.Info().
			Str("action", string(event.Action)).
			Str("resource_type", event.ResourceType).
			Str("resource_id", event.ResourceID).
			Str("ip", event.IPAddress).
			Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), event); err != nil {
				s.log.Warn().Err(err).Str("action", string(event.Action)).Msg("failed to persist audit event")
			}
		}
	}()
}
