package service

import (
	"context"
	"fmt"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// AuditService exposes the recorded event trail to administrators.
type AuditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new audit service.
func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns one page of audit entries, newest first.
func (s *AuditService) List(ctx context.Context, actor domain.Actor, filter domain.AuditFilter, page pagination.Params) ([]domain.AuditEntry, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, total, nil
}
