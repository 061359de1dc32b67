package memory

import (
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository for development and tests
type Memory struct {
	ticket     *ticketRepository
	escalation *escalationRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		ticket:     newTicketRepository(),
		escalation: newEscalationRepository(),
	}
}

func (m *Memory) Ticket() interfaces.TicketRepository {
	return m.ticket
}

func (m *Memory) Escalation() interfaces.EscalationRepository {
	return m.escalation
}

func (m *Memory) Close() error {
	return nil
}
