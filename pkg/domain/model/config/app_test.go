package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

func TestApp_IsWatched(t *testing.T) {
	app := config.DefaultApp()
	gt.Bool(t, app.IsWatched("C1")).True()

	app.Channels = []string{"C1"}
	gt.Bool(t, app.IsWatched("C1")).True()
	gt.Bool(t, app.IsWatched("C2")).False()
}

func TestApp_LookupTeam(t *testing.T) {
	app := config.DefaultApp()
	app.Teams = []config.Team{{ID: "infra", Name: "Infra"}}

	team, ok := app.LookupTeam("infra")
	gt.Bool(t, ok).True()
	gt.Value(t, team.Name).Equal("Infra")

	_, ok = app.LookupTeam("billing")
	gt.Bool(t, ok).False()
}

func TestApp_IsKnownTag(t *testing.T) {
	app := config.DefaultApp()
	gt.Bool(t, app.IsKnownTag("network")).True()
	gt.Bool(t, app.IsKnownTag("Not Valid")).False()

	app.Tags = []types.Tag{"network"}
	gt.Bool(t, app.IsKnownTag("network")).True()
	gt.Bool(t, app.IsKnownTag("vpn")).False()
}
