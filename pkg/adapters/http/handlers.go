package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/statecraft"
	"github.com/aretw0/statecraft/api"
	"github.com/aretw0/statecraft/internal/presentation/graph"
	"github.com/aretw0/statecraft/pkg/adapters/file"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

const maxBodyBytes = 1 << 20

// CreateInstanceRequest is the body of POST /api/workflow-instances.
type CreateInstanceRequest struct {
	DefinitionID string `json:"definitionId"`
}

// ExecuteActionRequest is the body of POST /api/workflow-instances/{id}/execute.
type ExecuteActionRequest struct {
	ActionID string `json:"actionId"`
}

// GetRoot handles the GET / request.
func (s *Server) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Statecraft API is running."})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now(),
	})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := api.Load(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "statecraft-http",
		"version":     strings.TrimSpace(statecraft.Version),
		"api_version": apiVersion,
	})
}

// CreateDefinition handles the POST /api/workflow-definitions request.
func (s *Server) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	spec, err := file.Decode(body, file.FormatJSON)
	if err != nil {
		s.logger.Warn("CreateDefinition: invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	def, err := s.Engine.CreateDefinition(r.Context(), spec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/workflow-definitions/"+def.ID)
	writeJSON(w, http.StatusCreated, def)
}

// ListDefinitions handles the GET /api/workflow-definitions request.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.Engine.ListDefinitions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// GetDefinition handles the GET /api/workflow-definitions/{id} request.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	def, found, err := s.Engine.GetDefinition(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, &domain.NotFoundError{Entity: domain.EntityDefinition, ID: id})
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// GetDefinitionGraph handles the GET /api/workflow-definitions/{id}/graph request.
func (s *Server) GetDefinitionGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var instanceID string
	if err := runtime.BindQueryParameter("form", true, false, "instanceId", r.URL.Query(), &instanceID); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid format for parameter instanceId: %v", err)})
		return
	}

	def, found, err := s.Engine.GetDefinition(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, &domain.NotFoundError{Entity: domain.EntityDefinition, ID: id})
		return
	}

	var overlay *graph.Overlay
	if instanceID != "" {
		inst, found, err := s.Engine.GetInstance(r.Context(), instanceID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !found || inst.DefinitionID != def.ID {
			s.writeError(w, r, &domain.NotFoundError{Entity: domain.EntityInstance, ID: instanceID})
			return
		}
		overlay = graph.OverlayFromInstance(*inst)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(*def, overlay))
}

// CreateInstance handles the POST /api/workflow-instances request.
func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var body CreateInstanceRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	inst, err := s.Engine.CreateInstance(r.Context(), body.DefinitionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/workflow-instances/"+inst.ID)
	writeJSON(w, http.StatusCreated, inst)
}

// ListInstances handles the GET /api/workflow-instances request.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	var definitionID string
	if err := runtime.BindQueryParameter("form", true, false, "definitionId", r.URL.Query(), &definitionID); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid format for parameter definitionId: %v", err)})
		return
	}

	var (
		insts []domain.InstanceView
		err   error
	)
	if definitionID != "" {
		insts, err = s.Engine.ListInstancesByDefinition(r.Context(), definitionID)
	} else {
		insts, err = s.Engine.ListInstances(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insts)
}

// GetInstance handles the GET /api/workflow-instances/{id} request.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	inst, found, err := s.Engine.GetInstance(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, &domain.NotFoundError{Entity: domain.EntityInstance, ID: id})
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// ExecuteAction handles the POST /api/workflow-instances/{id}/execute request.
func (s *Server) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var body ExecuteActionRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	inst, err := s.Engine.ExecuteAction(r.Context(), id, body.ActionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// pathID binds the {id} path parameter, writing a 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid format for parameter id: %v", err)})
		return "", false
	}
	return id, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}
