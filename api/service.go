package api

import (
	"fmt"

	"SevaDeskSaas/internal/serviceiface"
)

type GatewayService struct {
	config map[string]interface{}
}

func NewGatewayService(cfg map[string]interface{}) serviceiface.Service {
	return &GatewayService{config: cfg}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	port := "8080"
	allocationTarget := "http://localhost:7143"
	if s.config != nil {
		if p, ok := s.config["port"]; ok && p != nil {
			port = fmt.Sprintf("%v", p)
		}
		if t, ok := s.config["allocation_target"].(string); ok && t != "" {
			allocationTarget = t
		}
	}
	go StartGateway(port, allocationTarget)
	return nil
}

func (s *GatewayService) Stop() error {
	// Implement stop logic if needed
	return nil
}
