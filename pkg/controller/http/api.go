package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/safe"
)

const (
	defaultAPILimit = 20
	maxAPILimit     = 100
)

type ticketListResponse struct {
	Tickets []*model.Ticket `json:"tickets"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

type escalationListResponse struct {
	Escalations []*model.Escalation `json:"escalations"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, data)
}

// parseTicketFilter reads team, tag, status, since and until. since and
// until are RFC 3339 timestamps.
func parseTicketFilter(r *http.Request) (model.TicketFilter, error) {
	var filter model.TicketFilter
	q := r.URL.Query()

	if v := q.Get("team"); v != "" {
		team := types.TeamID(v)
		if err := team.Validate(); err != nil {
			return filter, goerr.Wrap(err, "invalid team")
		}
		filter.Team = &team
	}
	if v := q.Get("tag"); v != "" {
		tag := types.Tag(v)
		if err := tag.Validate(); err != nil {
			return filter, goerr.Wrap(err, "invalid tag")
		}
		filter.Tag = &tag
	}
	if v := q.Get("status"); v != "" {
		status, err := types.ParseTicketStatus(v)
		if err != nil {
			return filter, goerr.Wrap(err, "invalid status")
		}
		filter.Status = &status
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, goerr.Wrap(err, "invalid since", goerr.V("since", v))
		}
		filter.Since = &since
	}
	if v := q.Get("until"); v != "" {
		until, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, goerr.Wrap(err, "invalid until", goerr.V("until", v))
		}
		filter.Until = &until
	}
	return filter, nil
}

func parsePage(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	limit = defaultAPILimit

	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, goerr.New("invalid offset", goerr.V("offset", v))
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, goerr.New("invalid limit", goerr.V("limit", v))
		}
		limit = min(limit, maxAPILimit)
	}
	return offset, limit, nil
}

func listTicketsHandler(tickets TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseTicketFilter(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		offset, limit, err := parsePage(r)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		list, total, err := tickets.List(r.Context(), filter, offset, limit)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*model.Ticket{}
		}

		writeJSON(w, r, ticketListResponse{
			Tickets: list,
			Total:   total,
			Offset:  offset,
			Limit:   limit,
		})
	}
}

func getTicketHandler(tickets TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := types.TicketID(chi.URLParam(r, "id"))
		if err := id.Validate(); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		ticket, err := tickets.Get(r.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, usecase.ErrTicketNotFound) {
				status = http.StatusNotFound
			}
			errutil.HandleHTTP(r.Context(), w, err, status)
			return
		}

		writeJSON(w, r, ticket)
	}
}

func listEscalationsHandler(escalations EscalationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts []interfaces.ListEscalationOption
		q := r.URL.Query()

		if v := q.Get("status"); v != "" {
			status, err := types.ParseEscalationStatus(v)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid status"), http.StatusBadRequest)
				return
			}
			opts = append(opts, interfaces.WithEscalationStatus(status))
		}
		if v := q.Get("team"); v != "" {
			team := types.TeamID(v)
			if err := team.Validate(); err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid team"), http.StatusBadRequest)
				return
			}
			opts = append(opts, interfaces.WithEscalationTeam(team))
		}

		list, err := escalations.List(r.Context(), opts...)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*model.Escalation{}
		}

		writeJSON(w, r, escalationListResponse{Escalations: list})
	}
}
