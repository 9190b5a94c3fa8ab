package payrollhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/structures"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

func componentSegment(kind structures.Kind) string {
	if kind == structures.KindDeduction {
		return "deductions"
	}
	return "allowances"
}

func (h *Handler) handleListStructures(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	out, err := h.Structures.ListStructures(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleCreateStructure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload structures.StructureInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}
	st, err := h.Structures.CreateStructure(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "structure.create", "payroll_structure", st.ID, reqID, shared.ClientIP(r), nil, st)
	api.Created(w, st, reqID)
}

func (h *Handler) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	st, err := h.Structures.GetStructure(r.Context(), chi.URLParam(r, "structureID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, st, reqID)
}

func (h *Handler) handleUpdateStructure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload structures.StructureInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	st, err := h.Structures.UpdateStructure(r.Context(), chi.URLParam(r, "structureID"), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "structure.update", "payroll_structure", st.ID, reqID, shared.ClientIP(r), nil, st)
	api.Success(w, st, reqID)
}

func (h *Handler) handleDeleteStructure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	structureID := chi.URLParam(r, "structureID")
	if err := h.Structures.DeleteStructure(r.Context(), structureID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "structure.delete", "payroll_structure", structureID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": structureID}, reqID)
}

func (h *Handler) handleListComponents(kind structures.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		out, err := h.Structures.ListComponents(r.Context(), kind, chi.URLParam(r, "structureID"))
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		api.Success(w, out, reqID)
	}
}

func (h *Handler) handleAddComponent(kind structures.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		var payload structures.ComponentInput
		if err := shared.DecodeJSON(r, &payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
		v := shared.NewValidator()
		v.Required("name", payload.Name, "is required")
		v.Enum("type", payload.Type, []string{structures.TypeFixed, structures.TypePercentage}, "must be fixed or percentage")
		v.NonNegative("amount", payload.Amount)
		if v.Reject(w, reqID) {
			return
		}
		c, err := h.Structures.AddComponent(r.Context(), kind, chi.URLParam(r, "structureID"), payload)
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		h.Audit.RecordQuietly(r.Context(), user.UserID, string(kind)+".create", string(kind), c.ID, reqID, shared.ClientIP(r), nil, c)
		api.Created(w, c, reqID)
	}
}

func (h *Handler) handleGetComponent(kind structures.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		c, err := h.Structures.GetComponent(r.Context(), kind, chi.URLParam(r, "componentID"))
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		api.Success(w, c, reqID)
	}
}

func (h *Handler) handleUpdateComponent(kind structures.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		var payload structures.ComponentInput
		if err := shared.DecodeJSON(r, &payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
		c, err := h.Structures.UpdateComponent(r.Context(), kind, chi.URLParam(r, "componentID"), payload)
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		h.Audit.RecordQuietly(r.Context(), user.UserID, string(kind)+".update", string(kind), c.ID, reqID, shared.ClientIP(r), nil, c)
		api.Success(w, c, reqID)
	}
}

func (h *Handler) handleDeleteComponent(kind structures.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		componentID := chi.URLParam(r, "componentID")
		if err := h.Structures.DeleteComponent(r.Context(), kind, componentID); err != nil {
			h.fail(w, reqID, err)
			return
		}
		h.Audit.RecordQuietly(r.Context(), user.UserID, string(kind)+".delete", string(kind), componentID, reqID, shared.ClientIP(r), nil, nil)
		api.Success(w, map[string]string{"id": componentID}, reqID)
	}
}
