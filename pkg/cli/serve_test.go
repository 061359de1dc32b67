package cli_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/cli"
)

func TestRun_ServeRejectsNonPositiveSweepInterval(t *testing.T) {
	for _, interval := range []string{"0s", "-1m"} {
		t.Run(interval, func(t *testing.T) {
			err := cli.Run(context.Background(),
				[]string{"shepherd", "serve", "--stale-sweep-interval=" + interval}, "test")
			gt.Value(t, err).NotNil().Required()
			gt.Bool(t, strings.Contains(err.Error(), "stale-sweep-interval must be positive")).True()
		})
	}
}
