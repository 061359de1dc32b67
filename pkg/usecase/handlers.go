package usecase

import (
	"regexp"

	"github.com/secmon-lab/shepherd/pkg/controller/dispatch"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Handlers returns the complete handler registry of the application
func (uc *UseCases) Handlers() dispatch.Registry {
	return dispatch.Registry{
		Events: []dispatch.EventHandler{
			{Name: "ticket_message", Kind: model.EventKindMessagePosted, Handle: uc.Ticket.HandleMessagePosted},
			{Name: "ticket_reaction", Kind: model.EventKindReactionAdded, Handle: uc.Ticket.HandleReactionAdded},
			{Name: "mention_help", Kind: model.EventKindBotMentioned, Handle: uc.Ticket.HandleBotMentioned},
			{Name: "home_opened", Kind: model.EventKindHomeOpened, Handle: uc.Home.HandleHomeOpened},
		},
		Actions: []dispatch.ActionHandler{
			{Name: "escalation_resolve", Pattern: dispatch.ExactMatch(SlackActionIDResolve), Handle: uc.Escalation.HandleResolveAction},
			{Name: "ticket_escalate", Pattern: dispatch.ExactMatch(SlackActionIDEscalate), Handle: uc.Ticket.HandleEscalateAction},
			{Name: "home_page", Pattern: regexp.MustCompile(`^home_page_(next|prev)$`), Handle: uc.Home.HandlePageAction},
			{Name: "home_filter_team", Pattern: dispatch.ExactMatch(SlackActionIDHomeFilterTeam), Handle: uc.Home.HandleFilterTeamAction},
		},
		Submissions: []dispatch.SubmissionHandler{
			{Name: "escalation_submit", Pattern: dispatch.ExactMatch(SlackCallbackIDEscalate), Handle: uc.Ticket.HandleEscalateSubmission},
		},
	}
}
