package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CollectionEscalations is the base name of the escalation collection
const CollectionEscalations = "escalations"

type escalationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEscalationRepository(client *firestore.Client) *escalationRepository {
	return &escalationRepository{
		client: client,
	}
}

func (r *escalationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, CollectionEscalations))
}

func (r *escalationRepository) openedQuery(ticketID types.TicketID) firestore.Query {
	return r.collection().
		Where("ticket_id", "==", ticketID.String()).
		Where("status", "==", types.EscalationStatusOpened.String()).
		Limit(1)
}

func (r *escalationRepository) CreateIfNotExists(ctx context.Context, e *model.Escalation) (*model.Escalation, bool, error) {
	var result *model.Escalation
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false

		existing, err := firstEscalation(tx.Documents(r.openedQuery(e.TicketID)))
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		newEsc := e.Copy()
		newEsc.ID = types.EscalationID(uuid.NewString())
		newEsc.Status = types.EscalationStatusOpened
		newEsc.CreatedAt = time.Now().UTC()
		newEsc.ResolvedAt = nil

		if err := tx.Create(r.collection().Doc(newEsc.ID.String()), newEsc); err != nil {
			return goerr.Wrap(err, "failed to create escalation")
		}
		result, created = newEsc, true
		return nil
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create escalation", goerr.V("ticket_id", e.TicketID))
	}

	return result, created, nil
}

func (r *escalationRepository) Get(ctx context.Context, id types.EscalationID) (*model.Escalation, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "escalation not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get escalation", goerr.V("id", id))
	}
	return decodeEscalation(doc)
}

func (r *escalationRepository) Resolve(ctx context.Context, id types.EscalationID, when time.Time) (*model.Escalation, bool, error) {
	ref := r.collection().Doc(id.String())

	var result *model.Escalation
	var changed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "escalation not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get escalation", goerr.V("id", id))
		}

		e, err := decodeEscalation(doc)
		if err != nil {
			return err
		}

		result = e
		changed = e.Resolve(when.UTC())
		if !changed {
			return nil
		}
		return tx.Set(ref, e)
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to resolve escalation", goerr.V("id", id))
	}

	return result, changed, nil
}

func (r *escalationRepository) ResolveByTicketID(ctx context.Context, ticketID types.TicketID, when time.Time) (*model.Escalation, error) {
	var result *model.Escalation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = nil

		e, err := firstEscalation(tx.Documents(r.openedQuery(ticketID)))
		if err != nil {
			return err
		}
		if e == nil {
			return nil
		}

		e.Resolve(when.UTC())
		if err := tx.Set(r.collection().Doc(e.ID.String()), e); err != nil {
			return goerr.Wrap(err, "failed to save escalation", goerr.V("id", e.ID))
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve escalation", goerr.V("ticket_id", ticketID))
	}

	return result, nil
}

func (r *escalationRepository) GetOpenByTicketID(ctx context.Context, ticketID types.TicketID) (*model.Escalation, error) {
	return firstEscalation(r.openedQuery(ticketID).Documents(ctx))
}

func (r *escalationRepository) List(ctx context.Context, opts ...interfaces.ListEscalationOption) ([]*model.Escalation, error) {
	cfg := interfaces.BuildListEscalationConfig(opts...)

	q := r.collection().Query
	if s := cfg.Status(); s != nil {
		q = q.Where("status", "==", s.String())
	}
	if team := cfg.Team(); team != nil {
		q = q.Where("team", "==", team.String())
	}

	iter := q.OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	escalations := []*model.Escalation{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate escalations")
		}

		e, err := decodeEscalation(doc)
		if err != nil {
			return nil, err
		}
		escalations = append(escalations, e)
	}
	return escalations, nil
}

func firstEscalation(iter *firestore.DocumentIterator) (*model.Escalation, error) {
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query escalation")
	}
	return decodeEscalation(doc)
}

func decodeEscalation(doc *firestore.DocumentSnapshot) (*model.Escalation, error) {
	var e model.Escalation
	if err := doc.DataTo(&e); err != nil {
		return nil, goerr.Wrap(err, "failed to decode escalation", goerr.V("doc_id", doc.Ref.ID))
	}
	return &e, nil
}
