package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const uniqueViolation = "23505"

type voterRepository struct {
	db *sql.DB
}

func NewVoterRepository(db *sql.DB) ports.VoterRepository {
	return &voterRepository{
		db: db,
	}
}

const selectVoter = `
	SELECT id, username, account_identifier_hash, constituency, address,
	       is_registered, has_voted, registration_tx, vote_tx, registered_at, voted_at
	FROM voters
`

func (r *voterRepository) GetByAccountHash(ctx context.Context, accountHash string) (*domain.Voter, error) {
	return r.getOne(ctx, selectVoter+`WHERE account_identifier_hash = $1`, accountHash)
}

func (r *voterRepository) GetByAddress(ctx context.Context, address string) (*domain.Voter, error) {
	return r.getOne(ctx, selectVoter+`WHERE address = $1`, address)
}

func (r *voterRepository) Create(ctx context.Context, voter *domain.Voter) error {
	query := `
		INSERT INTO voters (id, username, account_identifier_hash, constituency, address,
		                    is_registered, has_voted, registration_tx, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		voter.ID, voter.Username, voter.AccountIdentifierHash, voter.Constituency, voter.Address,
		voter.IsRegistered, voter.HasVoted, voter.RegistrationTx, voter.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyRegistered, pqErr.Constraint)
		}
		return fmt.Errorf("%w: failed to insert voter: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// MarkVoted flips has_voted once. A voter that already voted is left untouched
// and reported as ErrAlreadyVoted.
func (r *voterRepository) MarkVoted(ctx context.Context, voter *domain.Voter) error {
	query := `
		UPDATE voters
		SET has_voted = TRUE, vote_tx = $2, voted_at = $3
		WHERE address = $1 AND has_voted = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, voter.Address, voter.VoteTx, voter.VotedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to mark vote: %w", domain.ErrStoreUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if n == 0 {
		if _, err := r.GetByAddress(ctx, voter.Address); err != nil {
			return err
		}
		return domain.ErrAlreadyVoted
	}
	return nil
}

func (r *voterRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *voterRepository) getOne(ctx context.Context, query string, arg string) (*domain.Voter, error) {
	var (
		voter   domain.Voter
		voteTx  sql.NullString
		votedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&voter.ID,
		&voter.Username,
		&voter.AccountIdentifierHash,
		&voter.Constituency,
		&voter.Address,
		&voter.IsRegistered,
		&voter.HasVoted,
		&voter.RegistrationTx,
		&voteTx,
		&voter.RegisteredAt,
		&votedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoterNotFound
		}
		return nil, fmt.Errorf("%w: failed to get voter: %w", domain.ErrStoreUnavailable, err)
	}

	voter.VoteTx = voteTx.String
	if votedAt.Valid {
		t := votedAt.Time
		voter.VotedAt = &t
	}
	return &voter, nil
}
