package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// validationErrors returns nil for an empty list so callers can return it directly.
func validationErrors(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	StatusCode   int
	Changes      string
}

func auditEntry(c domain.Caller, action domain.AuditAction, resourceType, resourceID string) AuditEntry {
	return AuditEntry{
		UserID:       c.UserID,
		UserRole:     c.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    c.IP,
		RequestID:    c.RequestID,
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePaging(page, pageSize *int) {
	if *pageSize <= 0 || *pageSize > maxPageSize {
		*pageSize = defaultPageSize
	}
	if *page <= 0 {
		*page = 1
	}
}
