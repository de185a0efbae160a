package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type healthService struct {
	repo   ports.VoterRepository
	ledger ports.Ledger
	now    func() time.Time
}

func NewHealthService(repo ports.VoterRepository, ledger ports.Ledger) ports.HealthService {
	return &healthService{repo: repo, ledger: ledger, now: time.Now}
}

// Check probes the ledger, the contract and the store concurrently. The
// report is returned even when a probe fails.
func (s *healthService) Check(ctx context.Context) (*domain.HealthReport, error) {
	report := &domain.HealthReport{Status: "ok", Timestamp: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.ledger.Status(gctx)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		report.Ethereum.Connected = true
		report.Ethereum.LedgerStatus = *status
		return nil
	})
	g.Go(func() error {
		info, err := s.ledger.Contract(gctx)
		if err != nil {
			return fmt.Errorf("contract: %w", err)
		}
		report.Contract = *info
		return nil
	})
	g.Go(func() error {
		if err := s.repo.Ping(gctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		report.Database.Connected = true
		return nil
	})

	if err := g.Wait(); err != nil {
		report.Status = "error"
		return report, err
	}
	return report, nil
}

func (s *healthService) Contract(ctx context.Context) (*domain.ContractInfo, error) {
	info, err := s.ledger.Contract(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Deployed {
		return info, fmt.Errorf("%w: %s", domain.ErrContractNotFound, info.Address)
	}
	return info, nil
}
