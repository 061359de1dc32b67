package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

// Dispatcher routes normalized Slack traffic to handlers
type Dispatcher interface {
	DispatchEvent(ctx context.Context, ev model.InboundEvent)
	DispatchAction(ctx context.Context, action *model.Action)
	DispatchSubmission(ctx context.Context, sub *model.Submission) (*model.SubmissionResponse, error)
}

// TicketReader serves the read API for tickets
type TicketReader interface {
	Get(ctx context.Context, id types.TicketID) (*model.Ticket, error)
	List(ctx context.Context, filter model.TicketFilter, offset, limit int) ([]*model.Ticket, int, error)
}

// EscalationReader serves the read API for escalations
type EscalationReader interface {
	List(ctx context.Context, opts ...interfaces.ListEscalationOption) ([]*model.Escalation, error)
}

type Server struct {
	router             *chi.Mux
	dispatcher         Dispatcher
	slackSigningSecret string
	tickets            TicketReader
	escalations        EscalationReader
}

type Options func(*Server)

// WithSlackWebhook enables /hooks/slack/* with signature verification
func WithSlackWebhook(dispatcher Dispatcher, signingSecret string) Options {
	return func(s *Server) {
		s.dispatcher = dispatcher
		s.slackSigningSecret = signingSecret
	}
}

// WithReadAPI enables the JSON read API under /api
func WithReadAPI(tickets TicketReader, escalations EscalationReader) Options {
	return func(s *Server) {
		s.tickets = tickets
		s.escalations = escalations
	}
}

func New(opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if s.tickets != nil && s.escalations != nil {
		r.Route("/api", func(r chi.Router) {
			r.Get("/tickets", listTicketsHandler(s.tickets))
			r.Get("/tickets/{id}", getTicketHandler(s.tickets))
			r.Get("/escalations", listEscalationsHandler(s.escalations))
		})
	}

	// No auth required, uses signature verification
	if s.dispatcher != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))

			r.Post("/event", NewSlackWebhookHandler(s.dispatcher).ServeHTTP)
			r.Post("/interaction", NewSlackInteractionHandler(s.dispatcher).ServeHTTP)
		})
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
