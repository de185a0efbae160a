package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const pendingVotePrefix = "vote:"

type votingService struct {
	repo    ports.VoterRepository
	ledger  ports.Ledger
	locks   *keyLock
	pending *DedupIndex
	metrics ports.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewVotingService(repo ports.VoterRepository, ledger ports.Ledger, metrics ports.Metrics, log logrus.FieldLogger) ports.VotingService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &votingService{
		repo:    repo,
		ledger:  ledger,
		locks:   newKeyLock(),
		pending: NewDedupIndex(),
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Vote casts the ballot on the ledger and then flips hasVoted in the store.
// Attempts from the same address are serialized so a lost race does not
// spend gas on a transaction the contract would revert.
func (s *votingService) Vote(ctx context.Context, req domain.VoteRequest) (_ *domain.VoteResult, err error) {
	defer func() { s.metrics.ObserveOutcome("vote", domain.Kind(err)) }()

	address, ok := normalizeAddress(req.Address)
	candidate := strings.TrimSpace(req.CandidateName)
	if !ok || candidate == "" {
		return nil, fmt.Errorf("%w: invalid address or candidate name", domain.ErrMalformedRequest)
	}
	log := s.log.WithFields(logrus.Fields{"address": address, "candidate": candidate})

	release, err := s.locks.Acquire(ctx, address)
	if err != nil {
		return nil, err
	}
	defer release()

	voter, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, storeError(err)
	}
	if !voter.IsRegistered {
		return nil, domain.ErrNotRegistered
	}
	// Advisory only: the contract enforces one vote per voter.
	if voter.HasVoted {
		return nil, domain.ErrAlreadyVoted
	}

	candidates, err := s.ledger.CandidateList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	if !slices.Contains(candidates, candidate) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCandidate, candidate)
	}

	// A vote whose transaction outcome is unknown blocks further submissions
	// from the address for the life of the process.
	pendingKey := pendingVotePrefix + address
	if err := s.pending.Reserve(pendingKey); err != nil {
		return nil, fmt.Errorf("%w: a previous vote from %s is still unconfirmed", domain.ErrIndeterminate, address)
	}
	keep := false
	defer func() {
		if !keep {
			s.pending.Release(pendingKey)
		}
	}()

	commitCtx := context.WithoutCancel(ctx)

	receipt, err := s.ledger.CastVote(commitCtx, candidate)
	if err != nil {
		if errors.Is(err, domain.ErrIndeterminate) {
			keep = true
			log.WithError(err).Warn("vote transaction outcome unknown, address held")
			return nil, err
		}
		log.WithError(err).Info("ledger rejected vote")
		return nil, fmt.Errorf("%w: %w", domain.ErrLedgerRejected, err)
	}

	voted := *voter
	votedAt := s.now().UTC()
	voted.HasVoted = true
	voted.VoteTx = receipt.TxHash
	voted.VotedAt = &votedAt
	if err := s.repo.MarkVoted(commitCtx, &voted); err != nil {
		log.WithError(err).WithField("tx", receipt.TxHash).Error("vote cast on ledger but not persisted")
		return nil, fmt.Errorf("%w: vote tx %s: %w", domain.ErrPartialCommit, receipt.TxHash, err)
	}

	log.WithField("tx", receipt.TxHash).Info("vote cast")
	return &domain.VoteResult{Voter: &voted, Receipt: receipt}, nil
}

func (s *votingService) GetVoter(ctx context.Context, address string) (*domain.Voter, error) {
	normalized, ok := normalizeAddress(address)
	if !ok {
		return nil, fmt.Errorf("%w: invalid address %q", domain.ErrMalformedRequest, address)
	}

	voter, err := s.repo.GetByAddress(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			return nil, err
		}
		return nil, storeError(err)
	}
	return voter, nil
}
