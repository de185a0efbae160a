package domain

import "errors"

var (
	ErrMalformedClaim    = errors.New("malformed registration claim")
	ErrMalformedRequest  = errors.New("malformed vote request")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrAlreadyRegistered = errors.New("voter is already registered")
	ErrAlreadyVoted      = errors.New("voter has already voted")
	ErrNotRegistered     = errors.New("voter is not registered")
	ErrUnknownCandidate  = errors.New("candidate does not exist")
	ErrLedgerRejected    = errors.New("ledger rejected the transaction")
	ErrEstimationFailed  = errors.New("gas estimation failed")
	ErrSubmissionFailed  = errors.New("transaction submission failed")
	ErrReverted          = errors.New("transaction reverted")
	ErrIndeterminate     = errors.New("transaction outcome unknown")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrPartialCommit     = errors.New("committed on ledger but not persisted")
	ErrStoreUnavailable  = errors.New("voter store unavailable")
	ErrVoterNotFound     = errors.New("voter not found")
	ErrContractNotFound  = errors.New("contract not found at specified address")
	ErrInternal          = errors.New("internal server error")
)

// kinds is ordered: the first sentinel matched in an error chain names its kind.
// PartialCommit and Indeterminate come before the ledger kinds they may wrap,
// LedgerRejected before the failure it wraps.
var kinds = []struct {
	err  error
	name string
}{
	{ErrPartialCommit, "PartialCommit"},
	{ErrIndeterminate, "Indeterminate"},
	{ErrMalformedClaim, "MalformedClaim"},
	{ErrMalformedRequest, "MalformedRequest"},
	{ErrInvalidSignature, "InvalidSignature"},
	{ErrAlreadyRegistered, "AlreadyRegistered"},
	{ErrAlreadyVoted, "AlreadyVoted"},
	{ErrNotRegistered, "NotRegistered"},
	{ErrUnknownCandidate, "UnknownCandidate"},
	{ErrLedgerRejected, "LedgerRejected"},
	{ErrEstimationFailed, "EstimationFailed"},
	{ErrSubmissionFailed, "SubmissionFailed"},
	{ErrReverted, "Reverted"},
	{ErrLedgerUnavailable, "LedgerUnavailable"},
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrVoterNotFound, "NotFound"},
	{ErrContractNotFound, "ContractNotFound"},
}

// Kind returns the stable error kind exposed to clients.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// LedgerFailure returns the ledger interaction kind behind a LedgerRejected
// error, or "" if err carries none.
func LedgerFailure(err error) string {
	switch {
	case errors.Is(err, ErrEstimationFailed):
		return "EstimationFailed"
	case errors.Is(err, ErrSubmissionFailed):
		return "SubmissionFailed"
	case errors.Is(err, ErrReverted):
		return "Reverted"
	}
	return ""
}

// IsClientError reports whether err is caused by the request itself and must
// not be retried as is.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedClaim),
		errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrNotRegistered),
		errors.Is(err, ErrUnknownCandidate):
		return true
	}
	return false
}
