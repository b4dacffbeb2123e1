package qrouter

import (
	"github.com/google/uuid"
	"github.com/pg-sharding/shardplan/router/statistics"
	"go.uber.org/atomic"
)

// Session is the per-client routing context. It is passed explicitly to
// every Route call and keeps the client's routing time digests.
type Session struct {
	*statistics.DigestHolder

	id         uuid.UUID
	statements atomic.Uint64
}

var _ statistics.StatHolder = &Session{}

func NewSession() *Session {
	return &Session{
		DigestHolder: statistics.NewDigestHolder(),
		id:           uuid.New(),
	}
}

func (s *Session) ID() string {
	return s.id.String()
}

// Statements is the number of statements routed in this session.
func (s *Session) Statements() uint64 {
	return s.statements.Load()
}
