package health

import (
	"context"
	"database/sql"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	db       Pinger
	provider string
	queued   bool
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Provider string `json:"provider"`
	Dispatch string `json:"dispatch"`
}

// NewService constructs a new health service. db may be nil when repositories are in memory.
func NewService(db *sql.DB, provider string, queued bool) *Service {
	s := &Service{provider: provider, queued: queued}
	if db != nil {
		s.db = db
	}
	return s
}

// Status checks the database, if any, and describes how evaluations are dispatched.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", Provider: s.provider, Dispatch: "inline"}
	if s.queued {
		r.Dispatch = "queue"
	}
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			r.OK = false
			r.Database = "unreachable"
		} else {
			r.Database = "up"
		}
	}
	return r
}
