package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/controller/dispatch"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

func TestHandlers_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	router, err := dispatch.New(f.uc.Handlers(), f.pool)
	gt.NoError(t, err).Required()

	router.DispatchEvent(ctx, model.NewMessagePosted("U100", c1Root, "printer is on fire", ""))
	f.pool.Wait()

	router.DispatchEvent(ctx, model.NewReactionAdded("U100", c1Root, "white_check_mark"))
	f.pool.Wait()

	ticket, err := f.repo.Ticket().Get(ctx, types.NewTicketID("C1", "100.000001"))
	gt.NoError(t, err).Required()
	gt.Value(t, ticket.Status).Equal(types.TicketStatusClosed)

	resp, err := router.DispatchSubmission(ctx, &model.Submission{CallbackID: "escalation_submit", PrivateMetadata: ticket.ID.String()})
	gt.NoError(t, err).Required()
	gt.Value(t, resp.ResponseAction).Equal(model.SubmissionResponseErrors)
}
