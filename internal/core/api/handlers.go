package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/metadata"
	"github.com/helioscrm/dynlogic/internal/types"
)

// Routes registers all API handlers on the mux. Method-qualified patterns
// give us 405 handling for free.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/resolve", s.handleResolve)
	mux.HandleFunc("GET /v1/rulesets", s.handleListRuleSets)
	mux.HandleFunc("GET /v1/rulesets/{entityType}", s.handleGetRuleSet)
	mux.HandleFunc("PUT /v1/rulesets/{entityType}", s.handlePutRuleSet)
	mux.HandleFunc("DELETE /v1/rulesets/{entityType}", s.handleDeleteRuleSet)
}

type resolveRequest struct {
	EntityType types.EntityType `json:"entityType"`
	Record     types.Record     `json:"record"`
}

// handleResolve computes field/panel states for one record snapshot.
// Resolution never fails; an unknown entity type yields defaults with
// ready=false so the client can render and defer validation.
func (s *Service) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EntityType == "" {
		writeError(w, http.StatusBadRequest, types.ErrEmptyEntityType.Error())
		return
	}

	start := time.Now()
	state := s.resolver.Resolve(req.EntityType, req.Record)
	s.observeResolve(req.EntityType, start)

	// The policy rides along so the client applies the same
	// hidden-but-required reconciliation the server is configured with.
	writeJSON(w, http.StatusOK, struct {
		*types.ResolvedState
		ValidationPolicy types.ValidationPolicy `json:"validationPolicy"`
	}{state, s.policy})
}

func (s *Service) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing rule sets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rule sets")
		return
	}
	if infos == nil {
		infos = []metadata.RuleSetInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ruleSets": infos})
}

func (s *Service) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	entityType := types.EntityType(r.PathValue("entityType"))

	stored, err := s.store.Get(r.Context(), entityType)
	if errors.Is(err, types.ErrRuleSetNotFound) {
		writeError(w, http.StatusNotFound, "no rule set for entity type")
		return
	}
	if err != nil {
		s.logger.Error("fetching rule set failed", "entity_type", entityType, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch rule set")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entityType": stored.EntityType,
		"revision":   stored.Revision,
		"updatedAt":  stored.UpdatedAt,
		"ruleSet":    stored.RuleSet,
	})
}

// handlePutRuleSet validates, persists, and hot-installs a rule set.
// Structural diagnostics are returned alongside success; only resource-limit
// violations reject the write.
func (s *Service) handlePutRuleSet(w http.ResponseWriter, r *http.Request) {
	entityType := types.EntityType(r.PathValue("entityType"))
	if entityType == "" {
		writeError(w, http.StatusBadRequest, types.ErrEmptyEntityType.Error())
		return
	}

	var rs types.RuleSet
	if err := decodeJSON(r, &rs); err != nil {
		if errors.Is(err, types.ErrDocumentTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	diagnostics, err := logic.ValidateRuleSet(&rs)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	revision, err := s.store.Put(r.Context(), entityType, &rs)
	if errors.Is(err, types.ErrDocumentTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("storing rule set failed", "entity_type", entityType, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store rule set")
		return
	}

	s.resolver.SetRuleSet(entityType, &rs)
	if s.metrics != nil {
		s.metrics.RuleSetUpdates.Inc()
	}
	s.logger.Info("rule set updated",
		"entity_type", entityType,
		"revision", revision,
		"diagnostics", len(diagnostics))

	if diagnostics == nil {
		diagnostics = []logic.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entityType":  entityType,
		"revision":    revision,
		"diagnostics": diagnostics,
	})
}

// handleDeleteRuleSet removes a stored rule set and uninstalls it from the
// resolver. The entity type reverts to not-ready defaults.
func (s *Service) handleDeleteRuleSet(w http.ResponseWriter, r *http.Request) {
	entityType := types.EntityType(r.PathValue("entityType"))

	err := s.store.Delete(r.Context(), entityType)
	if errors.Is(err, types.ErrRuleSetNotFound) {
		writeError(w, http.StatusNotFound, "no rule set for entity type")
		return
	}
	if err != nil {
		s.logger.Error("deleting rule set failed", "entity_type", entityType, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete rule set")
		return
	}

	s.resolver.SetRuleSet(entityType, nil)
	s.logger.Info("rule set deleted", "entity_type", entityType)
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, types.MaxDocumentSize+1))
	if err != nil {
		return err
	}
	if len(body) > types.MaxDocumentSize {
		return types.ErrDocumentTooLarge
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Join(types.ErrInvalidDocument, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
