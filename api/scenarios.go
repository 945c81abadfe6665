/*
scenarios.go - Scenario endpoints for demos and smoke tests

PURPOSE:
  Lists the built-in scenarios and runs them, or an uploaded YAML scenario,
  against a fresh in-memory contract. Runs never touch the live store, so
  these endpoints are safe on a production server.

USAGE VIA API:
  GET  /api/scenarios                   List built-in scenarios
  GET  /api/scenarios/{id}              Scenario definition
  POST /api/scenarios/{id}/run          Run a built-in scenario
  POST /api/scenarios/run               Run the YAML scenario in the body

SEE ALSO:
  - scenario/scenario.go: File format
  - scenario/builtin/: Built-in scenario files
*/
package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/scenario"
)

// maxScenarioBytes caps uploaded scenario bodies.
const maxScenarioBytes = 1 << 20

// ListScenarios returns the built-in scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := scenario.Builtins()
	if err != nil {
		writeContractError(w, err)
		return
	}
	dtos := make([]ScenarioDTO, len(all))
	for i, sc := range all {
		dtos[i] = ScenarioDTO{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Category:    sc.Category,
			Steps:       len(sc.Steps),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScenario returns a built-in scenario definition.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	sc, ok := scenario.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, string(pension.KindInvalidInput), "Unknown scenario", nil)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// RunScenario runs a built-in scenario.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	sc, ok := scenario.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, string(pension.KindInvalidInput), "Unknown scenario", nil)
		return
	}
	h.runScenario(w, r, sc)
}

// RunUploadedScenario parses the YAML body and runs it.
func (h *Handler) RunUploadedScenario(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxScenarioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Failed to read body", err)
		return
	}
	sc, err := scenario.ParseBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid scenario", err)
		return
	}
	h.runScenario(w, r, sc)
}

func (h *Handler) runScenario(w http.ResponseWriter, r *http.Request, sc *scenario.Scenario) {
	res, err := scenario.Run(r.Context(), sc, pension.WithLogger(h.Logger.With("scenario", sc.ID)))
	if err != nil {
		h.Logger.Error("scenario run failed", "scenario", sc.ID, "error", err)
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioRunDTO{
		ScenarioID: res.ScenarioID,
		Passed:     res.Passed(),
		Mismatches: res.Mismatches,
		Trace:      res.String(),
	})
}
