package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Voter     *VoterHandler
	Vote      *VoteHandler
	Candidate *CandidateHandler
	Health    *HealthHandler
	Metrics   http.Handler
}

// NewHandler wires the routes. requestTimeout bounds reads only; ledger
// submissions outlive the request context once started.
func NewHandler(h Handlers, logger logrus.FieldLogger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Post("/register", h.Voter.Register)
	r.Post("/vote", h.Vote.Vote)
	r.Post("/add-candidate", h.Candidate.Add)

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		r.Get("/candidates", h.Candidate.List)
		r.Get("/voters/{address}", h.Voter.GetVoter)
		r.Get("/health", h.Health.Health)
		r.Get("/contract", h.Health.Contract)
	})

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	return r
}
