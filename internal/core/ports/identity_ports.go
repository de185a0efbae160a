package ports

import "github.com/vncsmyrnk/ballot/internal/core/domain"

type IdentityVerifier interface {
	Verify(claim domain.RegistrationClaim) (*domain.VerifiedIdentity, error)
}
