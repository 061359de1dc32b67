package usecase

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	goslack "github.com/slack-go/slack"
)

// Slack interaction IDs for Block Kit elements
const (
	SlackActionIDEscalate       = "ticket_escalate"
	SlackActionIDResolve        = "escalation_resolve"
	SlackActionIDHomeNext       = "home_page_next"
	SlackActionIDHomePrev       = "home_page_prev"
	SlackActionIDHomeFilterTeam = "home_filter_team"
	SlackCallbackIDEscalate     = "escalation_submit"

	slackBlockIDTicketActions     = "ticket_actions"
	slackBlockIDEscalationActions = "escalation_actions"
	slackBlockIDHomeFilter        = "home_filter"
	slackBlockIDHomePager         = "home_pager"

	SlackBlockIDEscalateTeam  = "escalate_team"
	SlackActionIDEscalateTeam = "team"
	SlackBlockIDEscalateTags  = "escalate_tags"
	SlackActionIDEscalateTags = "tags"

	homeFilterAllTeams = "_all"
	queryPreviewLength = 80
)

func plainText(text string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.PlainTextType, text, true, false)
}

func markdown(text string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func teamLabel(app *config.App, id types.TeamID) string {
	if team, ok := app.LookupTeam(id); ok {
		return team.Name
	}
	return id.String()
}

func tagsText(tags model.Tags) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = "`" + string(tag) + "`"
	}
	return strings.Join(parts, " ")
}

// buildTicketOpenedBlocks is the acknowledgment posted in a new ticket thread
func buildTicketOpenedBlocks(app *config.App, ticket *model.Ticket) []goslack.Block {
	escalate := goslack.NewButtonBlockElement(SlackActionIDEscalate, ticket.ID.String(), plainText("Escalate"))
	escalate.Style = goslack.StyleDanger

	return []goslack.Block{
		goslack.NewSectionBlock(
			markdown(fmt.Sprintf("%s Ticket opened for <@%s>. React with :%s: when it is solved.",
				ticket.Status.Emoji(), ticket.AuthorID, app.Reactions.Resolved)),
			nil, nil,
		),
		goslack.NewContextBlock("",
			markdown(fmt.Sprintf("ID: `%s`  |  Status: %s", ticket.ID, ticket.Status)),
		),
		goslack.NewActionBlock(slackBlockIDTicketActions, escalate),
	}
}

func buildTicketStatusBlocks(ticket *model.Ticket) []goslack.Block {
	return []goslack.Block{
		goslack.NewContextBlock("",
			markdown(fmt.Sprintf("%s Ticket is now *%s*", ticket.Status.Emoji(), ticket.Status)),
		),
	}
}

func buildEscalationBlocks(app *config.App, esc *model.Escalation, issueURL string) []goslack.Block {
	text := fmt.Sprintf(":rotating_light: Escalated to *%s* by <@%s>", teamLabel(app, esc.Team), esc.EscalatedBy)
	if team, ok := app.LookupTeam(esc.Team); ok && team.UserGroupID != "" {
		text += fmt.Sprintf(" <!subteam^%s>", team.UserGroupID)
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(markdown(text), nil, nil),
	}

	var contextParts []string
	if tags := tagsText(esc.Tags); tags != "" {
		contextParts = append(contextParts, "Tags: "+tags)
	}
	if issueURL != "" {
		contextParts = append(contextParts, fmt.Sprintf(":link: <%s|Issue>", issueURL))
	}
	if len(contextParts) > 0 {
		blocks = append(blocks, goslack.NewContextBlock("",
			markdown(strings.Join(contextParts, "  |  ")),
		))
	}

	resolve := goslack.NewButtonBlockElement(SlackActionIDResolve, esc.ID.String(), plainText("Resolve"))
	resolve.Style = goslack.StylePrimary
	blocks = append(blocks, goslack.NewActionBlock(slackBlockIDEscalationActions, resolve))

	return blocks
}

func buildEscalationResolvedBlocks(esc *model.Escalation, actorID string) []goslack.Block {
	text := ":white_check_mark: Escalation resolved"
	if actorID != "" {
		text += fmt.Sprintf(" by <@%s>", actorID)
	}
	return []goslack.Block{
		goslack.NewContextBlock("", markdown(text)),
	}
}

func buildNotAuthorizedBlocks() []goslack.Block {
	return []goslack.Block{
		goslack.NewSectionBlock(
			markdown(":no_entry: You are not allowed to resolve escalations."),
			nil, nil,
		),
	}
}

func buildHelpBlocks(app *config.App, ticket *model.Ticket) []goslack.Block {
	lines := []string{
		"*How to use this channel*",
		"• Post a new message to open a ticket. Replies stay in its thread.",
		fmt.Sprintf("• React with :%s: on the first message to close the ticket.", app.Reactions.Resolved),
		"• Use the *Escalate* button to hand the ticket over to a team.",
	}
	if app.Reactions.Escalate != "" {
		lines = append(lines, fmt.Sprintf("• React with :%s: to escalate to *%s*.",
			app.Reactions.Escalate, teamLabel(app, app.Reactions.EscalateTeam)))
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(markdown(strings.Join(lines, "\n")), nil, nil),
	}
	if ticket != nil {
		blocks = append(blocks, goslack.NewContextBlock("",
			markdown(fmt.Sprintf("This thread is ticket `%s`: %s %s", ticket.ID, ticket.Status.Emoji(), ticket.Status)),
		))
	}
	return blocks
}

func buildEscalateModal(app *config.App, ticket *model.Ticket) goslack.ModalViewRequest {
	options := make([]*goslack.OptionBlockObject, 0, len(app.Teams))
	for _, team := range app.Teams {
		options = append(options, goslack.NewOptionBlockObject(team.ID.String(), plainText(team.Name), nil))
	}

	teamSelect := goslack.NewOptionsSelectBlockElement(goslack.OptTypeStatic, plainText("Select a team"), SlackActionIDEscalateTeam, options...)
	teamInput := goslack.NewInputBlock(SlackBlockIDEscalateTeam, plainText("Team"), nil, teamSelect)

	tagsInput := goslack.NewInputBlock(SlackBlockIDEscalateTags, plainText("Tags"),
		plainText("Comma separated, e.g. network, vpn"),
		goslack.NewPlainTextInputBlockElement(plainText("network, vpn"), SlackActionIDEscalateTags),
	)
	tagsInput.Optional = true

	return goslack.ModalViewRequest{
		Type:            goslack.VTModal,
		CallbackID:      SlackCallbackIDEscalate,
		PrivateMetadata: ticket.ID.String(),
		Title:           plainText("Escalate ticket"),
		Submit:          plainText("Escalate"),
		Close:           plainText("Cancel"),
		Blocks: goslack.Blocks{BlockSet: []goslack.Block{
			goslack.NewSectionBlock(markdown("> "+truncate(ticket.QueryText, queryPreviewLength)), nil, nil),
			teamInput,
			tagsInput,
		}},
	}
}

func buildHomeView(app *config.App, state model.HomepageViewState, tickets []*model.Ticket, total, pageSize int) goslack.HomeTabViewRequest {
	token := model.EncodeHomeViewState(state)

	blocks := []goslack.Block{
		goslack.NewHeaderBlock(plainText("Tickets")),
	}

	if len(app.Teams) > 0 {
		all := goslack.NewOptionBlockObject(homeFilterAllTeams, plainText("All teams"), nil)
		options := []*goslack.OptionBlockObject{all}
		initial := all
		for _, team := range app.Teams {
			opt := goslack.NewOptionBlockObject(team.ID.String(), plainText(team.Name), nil)
			options = append(options, opt)
			if state.Filter != nil && state.Filter.Team == team.ID {
				initial = opt
			}
		}
		teamSelect := goslack.NewOptionsSelectBlockElement(goslack.OptTypeStatic, plainText("Team"), SlackActionIDHomeFilterTeam, options...)
		teamSelect.InitialOption = initial
		blocks = append(blocks, goslack.NewActionBlock(slackBlockIDHomeFilter, teamSelect))
	}

	blocks = append(blocks, goslack.NewDividerBlock())

	if len(tickets) == 0 {
		blocks = append(blocks, goslack.NewSectionBlock(markdown("_No tickets_"), nil, nil))
	}
	for _, t := range tickets {
		blocks = append(blocks,
			goslack.NewSectionBlock(
				markdown(fmt.Sprintf("%s *%s*\n<#%s> by <@%s>", t.Status.Emoji(), truncate(t.QueryText, queryPreviewLength), t.ChannelID, t.AuthorID)),
				nil, nil,
			),
			goslack.NewContextBlock("", markdown(homeTicketContext(app, t))),
		)
	}

	lastPage := 0
	if total > 0 {
		lastPage = (total - 1) / pageSize
	}
	blocks = append(blocks, goslack.NewContextBlock("",
		markdown(fmt.Sprintf("Page %d of %d  |  %d tickets", state.Page+1, lastPage+1, total)),
	))

	var pager []goslack.BlockElement
	if state.Page > 0 {
		pager = append(pager, goslack.NewButtonBlockElement(SlackActionIDHomePrev, token, plainText("Previous")))
	}
	if state.Page < lastPage {
		pager = append(pager, goslack.NewButtonBlockElement(SlackActionIDHomeNext, token, plainText("Next")))
	}
	if len(pager) > 0 {
		blocks = append(blocks, goslack.NewActionBlock(slackBlockIDHomePager, pager...))
	}

	return goslack.HomeTabViewRequest{
		Type:            goslack.VTHomeTab,
		PrivateMetadata: token,
		Blocks:          goslack.Blocks{BlockSet: blocks},
	}
}

func homeTicketContext(app *config.App, t *model.Ticket) string {
	parts := []string{
		"Status: " + t.Status.String(),
		"Opened: " + t.CreatedAt.Format("2006-01-02 15:04"),
	}
	if t.Team != nil {
		parts = append(parts, "Team: "+teamLabel(app, *t.Team))
	}
	if t.Impact != nil {
		parts = append(parts, "Impact: "+t.Impact.String())
	}
	if tags := tagsText(t.Tags); tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, "  |  ")
}
