package requests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evdemand/core/request"
)

type staticLister []request.Request

func (s staticLister) Requests() []request.Request { return s }

func (s staticLister) Get(id string) (request.Request, bool) {
	for _, r := range s {
		if r.ApplianceID() == id {
			return r, true
		}
	}
	return nil, false
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func fixture() staticLister {
	soc := request.NewSocRequest(request.Base{ID: "wallbox"}, intPtr(80), nil, nil, nil)
	soc.SetInitialSoc(20)
	soc.Update(now)
	pending := request.NewSocRequest(request.Base{ID: "garage"}, nil, nil, nil, nil)
	heater := request.NewEnergyRequest(request.Base{ID: "heater"}, intPtr(500), 2000, nil)
	return staticLister{soc, pending, heater}
}

func get(t *testing.T, h http.Handler, url string) []Status {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", url, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out []Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestStatusHandler(t *testing.T) {
	h := NewStatusHandler(fixture(), func() time.Time { return now })
	out := get(t, h, "/api/requests")
	require.Len(t, out, 3)

	assert.Equal(t, "wallbox", out[0].ApplianceID)
	assert.Equal(t, request.KindSoc, out[0].Kind)
	assert.Equal(t, "active", out[0].State)
	require.NotNil(t, out[0].MaxWh)
	// 20% => 80% on the default 100 kWh battery with 10% loss
	assert.Equal(t, 66000, *out[0].MaxWh)
	assert.Equal(t, out[0].MinWh, out[0].MaxWh)

	assert.Equal(t, "pending", out[1].State)
	assert.Nil(t, out[1].MaxWh)

	assert.True(t, out[2].OptionalEnergy)
}

func TestStatusHandlerFilters(t *testing.T) {
	h := NewStatusHandler(fixture(), func() time.Time { return now })

	out := get(t, h, "/api/requests?kind=energy")
	require.Len(t, out, 1)
	assert.Equal(t, "heater", out[0].ApplianceID)

	out = get(t, h, "/api/requests?kind=soc&state=pending")
	require.Len(t, out, 1)
	assert.Equal(t, "garage", out[0].ApplianceID)

	assert.Empty(t, get(t, h, "/api/requests?state=finished"))
}

func TestStatusHandlerMethod(t *testing.T) {
	rr := httptest.NewRecorder()
	NewStatusHandler(staticLister{}, nil).ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/requests", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestDetailHandler(t *testing.T) {
	r := mux.NewRouter()
	r.Handle("/api/requests/{appliance_id}", NewDetailHandler(fixture(), func() time.Time { return now }))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/requests/wallbox", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, "wallbox", st.ApplianceID)
	assert.Equal(t, "wallbox/open/enabled=false/evId=nil/soc=20%=>80%/energy=66000Wh", st.Description)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/requests/pool", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
