package allocation

import (
	"fmt"

	"SevaDeskSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AllocationService struct {
	config  map[string]interface{}
	pool    *pgxpool.Pool
	manager *Manager
}

func NewAllocationService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &AllocationService{config: cfg, pool: pool}
}

func (s *AllocationService) Name() string {
	return "allocation"
}

func (s *AllocationService) Start() error {
	port := "7143"
	if s.config != nil {
		if p, ok := s.config["port"]; ok && p != nil {
			port = fmt.Sprintf("%v", p)
		}
	}
	s.manager = NewManager(s.pool)
	go StartAllocationService(s.manager, port)
	return nil
}

func (s *AllocationService) Stop() error {
	if s.manager != nil {
		s.manager.Close()
	}
	return nil
}
