package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

func TestCandidateService(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewCandidateService(ledger, nil, discardLogger())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list, "empty list encodes as []")
	assert.Empty(t, list)

	_, err = svc.Add(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrMalformedRequest)

	receipt, err := svc.Add(context.Background(), "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.TxHash)

	list, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, list)
}

func TestCandidateServiceLedgerFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addErr = fmt.Errorf("%w: only owner", domain.ErrEstimationFailed)
	svc := NewCandidateService(ledger, nil, discardLogger())

	_, err := svc.Add(context.Background(), "Alice")
	require.ErrorIs(t, err, domain.ErrLedgerRejected)
	assert.Equal(t, "EstimationFailed", domain.LedgerFailure(err))

	ledger.listErr = fmt.Errorf("%w: eof", domain.ErrLedgerUnavailable)
	_, err = svc.List(context.Background())
	require.ErrorIs(t, err, domain.ErrLedgerUnavailable)
}
