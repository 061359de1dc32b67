package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// HomeUseCase renders the ticket list in the App Home tab. The page and
// filter travel with the view, so nothing is stored per user.
type HomeUseCase struct {
	repo      interfaces.Repository
	messenger interfaces.OutboundMessenger
	app       *config.App
}

func (uc *HomeUseCase) pageSize() int {
	if uc.app.HomePageSize > 0 {
		return uc.app.HomePageSize
	}
	return config.DefaultHomePageSize
}

// HandleHomeOpened renders the first page
func (uc *HomeUseCase) HandleHomeOpened(ctx context.Context, ev model.InboundEvent) error {
	if _, ok := ev.(*model.HomeOpened); !ok {
		return goerr.Wrap(ErrUnexpectedEvent, "expected home opened", goerr.V("kind", ev.Kind()))
	}
	return uc.Render(ctx, ev.Actor(), model.HomepageViewState{})
}

// HandlePageAction moves one page forward or back from the state carried in
// the button value
func (uc *HomeUseCase) HandlePageAction(ctx context.Context, action *model.Action) error {
	state := model.DecodeHomeViewState(action.Value)

	switch action.ActionID {
	case SlackActionIDHomeNext:
		state = state.WithPage(state.Page + 1)
	case SlackActionIDHomePrev:
		state = state.WithPage(state.Page - 1)
	}

	return uc.Render(ctx, action.ActorID, state)
}

// HandleFilterTeamAction applies the selected team and goes back to the
// first page
func (uc *HomeUseCase) HandleFilterTeamAction(ctx context.Context, action *model.Action) error {
	state := model.DecodeHomeViewState(action.ViewMetadata)

	team := types.TeamID(action.SelectedOption)
	if action.SelectedOption == homeFilterAllTeams {
		team = ""
	}
	return uc.Render(ctx, action.ActorID, state.WithTeam(team))
}

// Render publishes the page of state to the actor's App Home. A page past
// the end is clamped to the last page.
func (uc *HomeUseCase) Render(ctx context.Context, actorID string, state model.HomepageViewState) error {
	size := uc.pageSize()
	filter := state.TicketFilter()

	tickets, total, err := uc.repo.Ticket().List(ctx, filter, state.Page*size, size)
	if err != nil {
		return goerr.Wrap(err, "failed to list tickets for home")
	}

	if lastPage := max(total-1, 0) / size; state.Page > lastPage {
		state = state.WithPage(lastPage)
		tickets, total, err = uc.repo.Ticket().List(ctx, filter, state.Page*size, size)
		if err != nil {
			return goerr.Wrap(err, "failed to list tickets for home")
		}
	}

	if err := uc.messenger.UpdateHomeView(ctx, actorID, buildHomeView(uc.app, state, tickets, total, size)); err != nil {
		return goerr.Wrap(err, "failed to publish home view", goerr.V("actor", actorID))
	}
	return nil
}
