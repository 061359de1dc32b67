package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

func TestHandleLogsGoerrValues(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	err := goerr.New("store unavailable", goerr.V("ticket_id", "C1_100.000001"))
	returned := errutil.Handle(ctx, err, "failed to close ticket")

	gt.Value(t, returned).Equal(error(err))
	gt.String(t, buf.String()).Contains("failed to close ticket")
	gt.String(t, buf.String()).Contains("C1_100.000001")
}

func TestHandleNil(t *testing.T) {
	gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))
}

func TestHandleHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), rec, goerr.New("bad payload"), http.StatusBadRequest)

	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.String(t, rec.Body.String()).Contains("bad payload")
}
