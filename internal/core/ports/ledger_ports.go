package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// Ledger submits transactions to the ballot contract. Submitting methods
// block until the transaction is mined or the confirmation wait expires.
type Ledger interface {
	RegisterVoter(ctx context.Context, constituency, accountHash string, signature []byte) (*domain.Receipt, error)
	CastVote(ctx context.Context, candidateName string) (*domain.Receipt, error)
	AddCandidate(ctx context.Context, candidateName string) (*domain.Receipt, error)
	CandidateList(ctx context.Context) ([]string, error)
	Contract(ctx context.Context) (*domain.ContractInfo, error)
	Status(ctx context.Context) (*domain.LedgerStatus, error)
}

type CandidateService interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, candidateName string) (*domain.Receipt, error)
}

type HealthService interface {
	Check(ctx context.Context) (*domain.HealthReport, error)
	Contract(ctx context.Context) (*domain.ContractInfo, error)
}

// Metrics records coordinator outcomes; kind is empty on success.
type Metrics interface {
	ObserveOutcome(operation, kind string)
}
