package logreader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T, queryHandler http.HandlerFunc) (*Reader, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(queryHandler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	backendCfg := backendclient.Config{URL: srv.URL, User: "u", Password: "p", DBName: "karabo", Timeout: time.Second}
	client := backendclient.New(backendCfg, backendCfg)
	return New(cfg, client, nil), srv
}

func writeQueryResult(t *testing.T, w http.ResponseWriter, result backendclient.QueryResult) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(result))
}

func TestGetPropertyHistoryRawBelowCap(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reader, _ := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		writeQueryResult(t, w, backendclient.QueryResult{
			Columns: []string{"time", "value"},
			Rows: [][]interface{}{
				{float64(base.UnixMicro()), 1.0},
				{float64(base.Add(time.Second).UnixMicro()), 2.0},
			},
		})
	})

	from := types.FromTime(base)
	to := types.FromTime(base.Add(10 * time.Second))
	points, err := reader.GetPropertyHistory(context.Background(), "XFEL/MOTOR/1", "position", from, to, 100)
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, StateON, reader.State())
}

func TestGetPropertyHistoryDownsamples(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([][]interface{}, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, []interface{}{
			float64(base.Add(time.Duration(i) * time.Second).UnixMicro()),
			float64(i),
		})
	}
	reader, _ := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		writeQueryResult(t, w, backendclient.QueryResult{Columns: []string{"time", "value"}, Rows: rows})
	})

	from := types.FromTime(base)
	to := types.FromTime(base.Add(20 * time.Second))
	points, err := reader.GetPropertyHistory(context.Background(), "XFEL/MOTOR/1", "position", from, to, 5)
	require.NoError(t, err)
	assert.Len(t, points, 5)
}

func TestGetPropertyHistoryRejectsOversizeMaxNumData(t *testing.T) {
	reader, _ := newTestReader(t, nil)
	_, err := reader.GetPropertyHistory(context.Background(), "d", "p", types.Now(), types.Now(), reader.MaxHistorySize()+1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Requested maximum number of data points ('maxNumData') is")
	assert.Contains(t, err.Error(), "which surpasses the limit of")
}

func TestGetPropertyHistoryRejectsNegativeMaxNumData(t *testing.T) {
	reader, _ := newTestReader(t, nil)
	_, err := reader.GetPropertyHistory(context.Background(), "d", "p", types.Now(), types.Now(), -1)
	require.Error(t, err)
}

func TestGetConfigurationFromPastNoSchema(t *testing.T) {
	reader, _ := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		writeQueryResult(t, w, backendclient.QueryResult{Columns: []string{"digest", "blob"}, Rows: nil})
	})
	_, err := reader.GetConfigurationFromPast(context.Background(), "XFEL/MOTOR/1", types.Now(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active schema could be found for device at (or before) timepoint.")
}

func TestBackendFailureDrivesReaderError(t *testing.T) {
	reader, _ := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := reader.GetPropertyHistory(context.Background(), "d", "p", types.Now(), types.Now(), 10)
	require.Error(t, err)
	assert.Equal(t, StateERROR, reader.State())
}
