package usecase

import (
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
)

type UseCases struct {
	repo         interfaces.Repository
	messenger    interfaces.OutboundMessenger
	membership   interfaces.MembershipLookup
	issueTracker interfaces.IssueTracker
	classifier   interfaces.Classifier
	threads      interfaces.ThreadResolver
	app          *config.App
	pool         *async.Pool
	clock        func() time.Time

	bus        *EventBus
	Gate       *AuthorizationGate
	Ticket     *TicketUseCase
	Escalation *EscalationUseCase
	Home       *HomeUseCase
}

type Option func(*UseCases)

func WithAppConfig(app *config.App) Option {
	return func(uc *UseCases) {
		uc.app = app
	}
}

// WithMembershipLookup enables the authorization gate
func WithMembershipLookup(lookup interfaces.MembershipLookup) Option {
	return func(uc *UseCases) {
		uc.membership = lookup
	}
}

func WithIssueTracker(tracker interfaces.IssueTracker) Option {
	return func(uc *UseCases) {
		uc.issueTracker = tracker
	}
}

func WithClassifier(classifier interfaces.Classifier) Option {
	return func(uc *UseCases) {
		uc.classifier = classifier
	}
}

// WithThreadResolver lets reactions on thread replies act on the ticket of
// the thread
func WithThreadResolver(resolver interfaces.ThreadResolver) Option {
	return func(uc *UseCases) {
		uc.threads = resolver
	}
}

// WithPool sets the worker pool used for work scheduled by interactions
func WithPool(pool *async.Pool) Option {
	return func(uc *UseCases) {
		uc.pool = pool
	}
}

func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, messenger interfaces.OutboundMessenger, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		messenger: messenger,
		app:       config.DefaultApp(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.pool == nil {
		uc.pool = async.NewPool()
	}

	uc.bus = NewEventBus()
	uc.Gate = NewAuthorizationGate(uc.membership)
	uc.Ticket = &TicketUseCase{
		repo:       repo,
		messenger:  messenger,
		classifier: uc.classifier,
		threads:    uc.threads,
		app:        uc.app,
		bus:        uc.bus,
		pool:       uc.pool,
		clock:      uc.clock,
	}
	uc.Escalation = &EscalationUseCase{
		repo:         repo,
		messenger:    messenger,
		issueTracker: uc.issueTracker,
		gate:         uc.Gate,
		app:          uc.app,
		clock:        uc.clock,
	}
	uc.Home = &HomeUseCase{
		repo:      repo,
		messenger: messenger,
		app:       uc.app,
	}

	uc.bus.OnTicketStatusChanged("resolve_escalation_on_close", uc.Escalation.HandleTicketStatusChanged)
	uc.bus.OnTicketEscalated("create_escalation", uc.Escalation.HandleTicketEscalated)

	return uc
}

// Bus returns the domain event bus
func (uc *UseCases) Bus() *EventBus {
	return uc.bus
}
