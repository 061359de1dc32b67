package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Ticket() TicketRepository
	Escalation() EscalationRepository

	Close() error
}
