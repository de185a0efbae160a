package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// VoterRepository is the persistence collaborator. Lookups return
// domain.ErrVoterNotFound when no record matches.
type VoterRepository interface {
	GetByAccountHash(ctx context.Context, accountHash string) (*domain.Voter, error)
	GetByAddress(ctx context.Context, address string) (*domain.Voter, error)
	Create(ctx context.Context, voter *domain.Voter) error
	MarkVoted(ctx context.Context, voter *domain.Voter) error
	Ping(ctx context.Context) error
}

type RegistrationService interface {
	Register(ctx context.Context, claim domain.RegistrationClaim) (*domain.RegistrationResult, error)
}

type VotingService interface {
	Vote(ctx context.Context, req domain.VoteRequest) (*domain.VoteResult, error)
	GetVoter(ctx context.Context, address string) (*domain.Voter, error)
}
