package pages

import (
	"log/slog"

	"github.com/odyssey-erp/stockroom/internal/gateway"
)

// Service builds page models for every dashboard screen.
type Service struct {
	logger *slog.Logger
	spaces *Workspaces
	gw     *gateway.Gateway
	guard  Guard
}

// NewService wires the page models. guard may be nil, which disables the
// in-flight check.
func NewService(logger *slog.Logger, spaces *Workspaces, gw *gateway.Gateway, guard Guard) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, spaces: spaces, gw: gw, guard: guard}
}

// Workspaces exposes the per-session caches.
func (s *Service) Workspaces() *Workspaces { return s.spaces }

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
