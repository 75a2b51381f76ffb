package analytics

import (
	"time"

	"qualifyr/internal/platform/models"
)

type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

type Dashboard struct {
	Overview
	Usage Usage `json:"usage"`
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Dashboard(account *models.Account, now time.Time) (*Dashboard, error) {
	overview, err := s.repo.Overview(account.ID, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Overview: *overview,
		Usage:    Usage{Used: account.LeadsUsed, Limit: account.LeadsLimit},
	}, nil
}
