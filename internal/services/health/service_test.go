package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestStatusWithoutDatabase(t *testing.T) {
	r := NewService(nil, "openai", false).Status(context.Background())
	if !r.OK || r.Database != "memory" || r.Dispatch != "inline" || r.Provider != "openai" {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestStatusReportsDatabase(t *testing.T) {
	s := &Service{db: fakePinger{}, provider: "gemini", queued: true}
	if r := s.Status(context.Background()); !r.OK || r.Database != "up" || r.Dispatch != "queue" {
		t.Fatalf("unexpected report %+v", r)
	}

	s.db = fakePinger{err: errors.New("connection refused")}
	if r := s.Status(context.Background()); r.OK || r.Database != "unreachable" {
		t.Fatalf("unexpected report %+v", r)
	}
}
