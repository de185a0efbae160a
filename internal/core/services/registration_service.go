package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const addressKeyPrefix = "address:"

type registrationService struct {
	repo     ports.VoterRepository
	ledger   ports.Ledger
	verifier ports.IdentityVerifier
	index    *DedupIndex
	metrics  ports.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewRegistrationService(
	repo ports.VoterRepository,
	ledger ports.Ledger,
	verifier ports.IdentityVerifier,
	index *DedupIndex,
	metrics ports.Metrics,
	log logrus.FieldLogger,
) ports.RegistrationService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &registrationService{
		repo:     repo,
		ledger:   ledger,
		verifier: verifier,
		index:    index,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Register commits the claim on the ledger first and persists the voter only
// after the transaction is mined.
func (s *registrationService) Register(ctx context.Context, claim domain.RegistrationClaim) (_ *domain.RegistrationResult, err error) {
	defer func() { s.metrics.ObserveOutcome("register", domain.Kind(err)) }()

	claim, err = validateClaim(claim)
	if err != nil {
		return nil, err
	}
	accountHash := HashAccountIdentifier(claim.AccountIdentifier)
	log := s.log.WithFields(logrus.Fields{
		"address":      claim.Address,
		"account_hash": accountHash,
		"constituency": claim.Constituency,
	})

	if err := s.ensureUnregistered(ctx, accountHash, claim.Address); err != nil {
		return nil, err
	}

	identity, err := s.verifier.Verify(claim)
	if err != nil {
		return nil, err
	}

	if err := s.index.Reserve(accountHash); err != nil {
		return nil, err
	}
	if err := s.index.Reserve(addressKeyPrefix + claim.Address); err != nil {
		s.index.Release(accountHash)
		return nil, err
	}
	keep := false
	defer func() {
		if !keep {
			s.index.Release(accountHash)
			s.index.Release(addressKeyPrefix + claim.Address)
		}
	}()

	// A concurrent registration may have persisted between the first check
	// and the reservation.
	if err := s.ensureUnregistered(ctx, accountHash, claim.Address); err != nil {
		return nil, err
	}

	// From here on the request must run to completion even if the client
	// goes away: a mined transaction has to reach the store.
	commitCtx := context.WithoutCancel(ctx)

	receipt, err := s.ledger.RegisterVoter(commitCtx, claim.Constituency, accountHash, identity.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrIndeterminate) {
			keep = true
			log.WithError(err).Warn("registration transaction outcome unknown, reservation kept")
			return nil, err
		}
		log.WithError(err).Info("ledger rejected registration")
		return nil, fmt.Errorf("%w: %w", domain.ErrLedgerRejected, err)
	}

	voter := &domain.Voter{
		ID:                    uuid.New(),
		Username:              claim.Username,
		AccountIdentifierHash: accountHash,
		Constituency:          claim.Constituency,
		Address:               claim.Address,
		IsRegistered:          true,
		HasVoted:              false,
		RegistrationTx:        receipt.TxHash,
		RegisteredAt:          s.now().UTC(),
	}
	if err := s.repo.Create(commitCtx, voter); err != nil {
		log.WithError(err).WithField("tx", receipt.TxHash).Error("voter registered on ledger but not persisted")
		return nil, fmt.Errorf("%w: registration tx %s: %w", domain.ErrPartialCommit, receipt.TxHash, err)
	}

	log.WithField("tx", receipt.TxHash).Info("voter registered")
	return &domain.RegistrationResult{Voter: voter, Receipt: receipt}, nil
}

func (s *registrationService) ensureUnregistered(ctx context.Context, accountHash, address string) error {
	if _, err := s.repo.GetByAccountHash(ctx, accountHash); err == nil {
		return fmt.Errorf("%w: account number hash is already registered", domain.ErrAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrVoterNotFound) {
		return storeError(err)
	}

	if _, err := s.repo.GetByAddress(ctx, address); err == nil {
		return fmt.Errorf("%w: address is already registered", domain.ErrAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrVoterNotFound) {
		return storeError(err)
	}
	return nil
}

func validateClaim(claim domain.RegistrationClaim) (domain.RegistrationClaim, error) {
	claim.Username = strings.TrimSpace(claim.Username)
	claim.Signature = strings.TrimSpace(claim.Signature)

	// The constituency is signed as is, so it cannot be normalized here.
	if claim.Constituency != strings.TrimSpace(claim.Constituency) {
		return claim, fmt.Errorf("%w: constituency has surrounding whitespace", domain.ErrMalformedClaim)
	}

	if claim.Username == "" || claim.AccountIdentifier == "" || claim.Constituency == "" ||
		claim.Address == "" || claim.Signature == "" {
		return claim, fmt.Errorf("%w: username, account identifier, constituency, address and signature are required", domain.ErrMalformedClaim)
	}

	address, ok := normalizeAddress(claim.Address)
	if !ok {
		return claim, fmt.Errorf("%w: invalid address %q", domain.ErrMalformedClaim, claim.Address)
	}
	claim.Address = address
	return claim, nil
}

func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
