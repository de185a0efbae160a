package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type candidateService struct {
	ledger  ports.Ledger
	metrics ports.Metrics
	log     logrus.FieldLogger
}

func NewCandidateService(ledger ports.Ledger, metrics ports.Metrics, log logrus.FieldLogger) ports.CandidateService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &candidateService{ledger: ledger, metrics: metrics, log: log}
}

func (s *candidateService) List(ctx context.Context) ([]string, error) {
	candidates, err := s.ledger.CandidateList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	if candidates == nil {
		candidates = []string{}
	}
	return candidates, nil
}

func (s *candidateService) Add(ctx context.Context, candidateName string) (_ *domain.Receipt, err error) {
	defer func() { s.metrics.ObserveOutcome("add_candidate", domain.Kind(err)) }()

	candidateName = strings.TrimSpace(candidateName)
	if candidateName == "" {
		return nil, fmt.Errorf("%w: candidate name is required", domain.ErrMalformedRequest)
	}

	receipt, err := s.ledger.AddCandidate(context.WithoutCancel(ctx), candidateName)
	if err != nil {
		if errors.Is(err, domain.ErrIndeterminate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLedgerRejected, err)
	}

	s.log.WithFields(logrus.Fields{"candidate": candidateName, "tx": receipt.TxHash}).Info("candidate added")
	return receipt, nil
}
