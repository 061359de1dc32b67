package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/usecase"
)

func seedTickets(t *testing.T, f *fixture, n int) {
	t.Helper()
	for i := range n {
		f.advance(time.Minute)
		f.openTicket(t, model.MessageReference{ChannelID: "C1", Timestamp: fmt.Sprintf("%d.000001", 100+i)})
	}
}

func TestHome_Pagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTickets(t, f, 25)

	gt.NoError(t, f.uc.Home.HandleHomeOpened(ctx, model.NewHomeOpened("U1"))).Required()
	home := f.messenger.lastHome()
	gt.Value(t, home.ActorID).Equal("U1")
	gt.Value(t, model.DecodeHomeViewState(home.View.PrivateMetadata)).Equal(model.HomepageViewState{})

	token := home.View.PrivateMetadata
	gt.NoError(t, f.uc.Home.HandlePageAction(ctx, &model.Action{
		ActionID: usecase.SlackActionIDHomeNext, Value: token, ActorID: "U1",
	})).Required()
	state := model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata)
	gt.Value(t, state.Page).Equal(1)

	t.Run("previous from first page stays on first page", func(t *testing.T) {
		gt.NoError(t, f.uc.Home.HandlePageAction(ctx, &model.Action{
			ActionID: usecase.SlackActionIDHomePrev, Value: model.EncodeHomeViewState(model.HomepageViewState{}), ActorID: "U1",
		})).Required()
		gt.Value(t, model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata).Page).Equal(0)
	})

	t.Run("next past the end is clamped to last page", func(t *testing.T) {
		gt.NoError(t, f.uc.Home.HandlePageAction(ctx, &model.Action{
			ActionID: usecase.SlackActionIDHomeNext, Value: model.EncodeHomeViewState(model.HomepageViewState{Page: 2}), ActorID: "U1",
		})).Required()
		gt.Value(t, model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata).Page).Equal(2)
	})

	t.Run("garbage token renders first page", func(t *testing.T) {
		gt.NoError(t, f.uc.Home.HandlePageAction(ctx, &model.Action{
			ActionID: usecase.SlackActionIDHomePrev, Value: "garbage-token", ActorID: "U1",
		})).Required()
		gt.Value(t, model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata)).Equal(model.HomepageViewState{})
	})
}

func TestHome_FilterTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTickets(t, f, 3)

	gt.NoError(t, f.uc.Home.HandleFilterTeamAction(ctx, &model.Action{
		ActionID:       usecase.SlackActionIDHomeFilterTeam,
		ActorID:        "U1",
		SelectedOption: "infra",
		ViewMetadata:   model.EncodeHomeViewState(model.HomepageViewState{Page: 3}),
	})).Required()

	state := model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata)
	gt.Value(t, state.Page).Equal(0)
	gt.Value(t, state.Filter).NotNil()
	gt.Value(t, state.Filter.Team).Equal(types.TeamID("infra"))

	gt.NoError(t, f.uc.Home.HandleFilterTeamAction(ctx, &model.Action{
		ActionID:       usecase.SlackActionIDHomeFilterTeam,
		ActorID:        "U1",
		SelectedOption: "_all",
		ViewMetadata:   f.messenger.lastHome().View.PrivateMetadata,
	})).Required()
	gt.Value(t, model.DecodeHomeViewState(f.messenger.lastHome().View.PrivateMetadata)).Equal(model.HomepageViewState{})
}
