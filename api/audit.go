package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// newAuditID returns a time-ordered UUIDv7.
func newAuditID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// record appends an audit entry for an accepted mutation. The mutation has
// already committed, so a failed append is logged and never reported to
// the caller.
func (h *Handler) record(r *http.Request, actor generic.AccountID, action generic.AuditAction, target generic.AccountID, payload map[string]any) {
	if h.Audit == nil {
		return
	}
	id, err := h.newID()
	if err != nil {
		h.Logger.Error("audit id generation failed", "action", string(action), "error", err)
		return
	}
	entry := generic.AuditEntry{
		ID:        id,
		Timestamp: h.now().UTC(),
		ActorID:   actor,
		Action:    action,
		TargetID:  target,
		Payload:   payload,
	}
	if err := h.Audit.Append(r.Context(), entry); err != nil {
		h.Logger.Error("audit append failed", "action", string(action), "actor", actor.Short(), "error", err)
	}
}

// ListAudit returns audit entries, oldest first.
//
// Query parameters: actor, target (account ids), action (repeatable), limit.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeJSON(w, http.StatusOK, []AuditEntryDTO{})
		return
	}

	q := r.URL.Query()
	var filter generic.AuditFilter
	for key, dst := range map[string]**generic.AccountID{"actor": &filter.ActorID, "target": &filter.TargetID} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		id, err := generic.ParseAccountID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid "+key, err)
			return
		}
		*dst = &id
	}
	for _, a := range q["action"] {
		filter.Actions = append(filter.Actions, generic.AuditAction(a))
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid limit", err)
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Audit.Query(r.Context(), filter)
	if err != nil {
		writeContractError(w, err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}
