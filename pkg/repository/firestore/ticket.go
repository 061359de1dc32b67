package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CollectionTickets is the base name of the ticket collection
const CollectionTickets = "tickets"

type ticketRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTicketRepository(client *firestore.Client) *ticketRepository {
	return &ticketRepository{
		client: client,
	}
}

func (r *ticketRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, CollectionTickets))
}

func (r *ticketRepository) Create(ctx context.Context, t *model.Ticket) (*model.Ticket, bool, error) {
	if err := t.ID.Validate(); err != nil {
		return nil, false, goerr.Wrap(err, "invalid ticket")
	}

	ref := r.collection().Doc(t.ID.String())
	if _, err := ref.Create(ctx, t); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, goerr.Wrap(err, "failed to create ticket", goerr.V("id", t.ID))
		}

		existing, err := r.Get(ctx, t.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return t.Copy(), true, nil
}

func (r *ticketRepository) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("id", id))
	}
	return decodeTicket(doc)
}

func (r *ticketRepository) FindByThread(ctx context.Context, ref model.MessageReference) (*model.Ticket, error) {
	id := types.NewTicketID(ref.ChannelID, ref.ThreadKey())
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("id", id))
	}
	return decodeTicket(doc)
}

// update runs fn on the stored ticket inside a transaction and writes the
// result back if fn reports a change
func (r *ticketRepository) update(ctx context.Context, id types.TicketID, fn func(t *model.Ticket) bool) (*model.Ticket, bool, error) {
	ref := r.collection().Doc(id.String())

	var result *model.Ticket
	var changed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get ticket", goerr.V("id", id))
		}

		t, err := decodeTicket(doc)
		if err != nil {
			return err
		}

		result = t
		changed = fn(t)
		if !changed {
			return nil
		}
		return tx.Set(ref, t)
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to update ticket", goerr.V("id", id))
	}

	return result, changed, nil
}

func (r *ticketRepository) AppendStatus(ctx context.Context, id types.TicketID, next types.TicketStatus, when time.Time) (*model.Ticket, bool, error) {
	return r.update(ctx, id, func(t *model.Ticket) bool {
		return t.AppendStatus(next, when.UTC())
	})
}

func (r *ticketRepository) Touch(ctx context.Context, id types.TicketID, when time.Time) error {
	_, _, err := r.update(ctx, id, func(t *model.Ticket) bool {
		if !when.After(t.LastActivityAt) {
			return false
		}
		t.LastActivityAt = when.UTC()
		return true
	})
	return err
}

func (r *ticketRepository) UpdateClassification(ctx context.Context, id types.TicketID, impact *types.Impact, tags model.Tags) (*model.Ticket, error) {
	t, _, err := r.update(ctx, id, func(t *model.Ticket) bool {
		if impact != nil {
			v := *impact
			t.Impact = &v
		}
		t.Tags = t.Tags.Add(tags...)
		return true
	})
	return t, err
}

func (r *ticketRepository) SetTeam(ctx context.Context, id types.TicketID, team types.TeamID) error {
	_, _, err := r.update(ctx, id, func(t *model.Ticket) bool {
		t.Team = &team
		return true
	})
	return err
}

func (r *ticketRepository) filterQuery(filter model.TicketFilter) firestore.Query {
	q := r.collection().Query
	if filter.Team != nil {
		q = q.Where("team", "==", filter.Team.String())
	}
	if filter.Tag != nil {
		q = q.Where("tags", "array-contains", string(*filter.Tag))
	}
	if filter.Status != nil {
		q = q.Where("status", "==", filter.Status.String())
	}
	if filter.Since != nil {
		q = q.Where("created_at", ">=", *filter.Since)
	}
	if filter.Until != nil {
		q = q.Where("created_at", "<", *filter.Until)
	}
	return q
}

func (r *ticketRepository) List(ctx context.Context, filter model.TicketFilter, offset, limit int) ([]*model.Ticket, int, error) {
	q := r.filterQuery(filter)

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count tickets")
	}
	if offset >= total || limit <= 0 {
		return []*model.Ticket{}, total, nil
	}

	iter := q.OrderBy("created_at", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	tickets, err := collectTickets(iter)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListStaleCandidates(ctx context.Context, before time.Time) ([]*model.Ticket, error) {
	iter := r.collection().
		Where("status", "==", types.TicketStatusOpened.String()).
		Where("last_activity_at", "<", before).
		Documents(ctx)
	defer iter.Stop()

	return collectTickets(iter)
}

func countQuery(ctx context.Context, q firestore.Query) (int, error) {
	const alias = "total"

	result, err := q.NewAggregationQuery().WithCount(alias).Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to run aggregation query")
	}

	v, ok := result[alias].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected aggregation result", goerr.V("result", result))
	}
	return int(v.GetIntegerValue()), nil
}

func collectTickets(iter *firestore.DocumentIterator) ([]*model.Ticket, error) {
	tickets := []*model.Ticket{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		t, err := decodeTicket(doc)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func decodeTicket(doc *firestore.DocumentSnapshot) (*model.Ticket, error) {
	var t model.Ticket
	if err := doc.DataTo(&t); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket", goerr.V("doc_id", doc.Ref.ID))
	}
	if t.Tags == nil {
		t.Tags = model.Tags{}
	}
	return &t, nil
}
