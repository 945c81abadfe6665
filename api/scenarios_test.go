package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListScenarios(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]ScenarioDTO](t, s.do("GET", "/api/scenarios", nil, nil))

	require.Len(t, list, 4)
	assert.Equal(t, "basic-payout", list[0].ID)
}

func TestRunScenario_DoesNotTouchLiveStore(t *testing.T) {
	// GIVEN: an empty live contract
	s := newTestServer(t)

	// WHEN: a built-in scenario runs
	rec := s.do("POST", "/api/scenarios/basic-payout/run", nil, nil)

	// THEN: it passes
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[ScenarioRunDTO](t, rec)
	assert.True(t, run.Passed, run.Trace)
	assert.Contains(t, run.Trace, "10 alice initiate_payout: ok amount=30600")

	// AND: the live contract still has no pensioners or members
	assert.JSONEq(t, `{"pensioners": []}`, s.do("GET", "/api/pensioners", nil, nil).Body.String())
	assert.JSONEq(t, `{"role": "company", "members": []}`, s.do("GET", "/api/roles/company/members", nil, nil).Body.String())
}

func TestRunScenario_Unknown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/api/scenarios/nope/run", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunUploadedScenario(t *testing.T) {
	s := newTestServer(t)
	doc := `
id: uploaded
owner: owner
steps:
  - as: mallory
    op: register_company
    target: mallory
    expect: {kind: Unauthorized}
`
	req := httptest.NewRequest("POST", "/api/scenarios/run", strings.NewReader(doc))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[ScenarioRunDTO](t, rec)
	assert.True(t, run.Passed)
	assert.Equal(t, "uploaded", run.ScenarioID)
}

func TestRunUploadedScenario_Invalid(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/scenarios/run", strings.NewReader("id: x\n"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidInput", decode[ErrorResponse](t, rec).Kind)
}
