package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/store"
)

func (h *Handler) registerRecordRoutes(r chi.Router) {
	r.Route("/medications", func(r chi.Router) {
		r.Get("/", h.ListMedications)
		r.Post("/", h.AddMedication)
		r.Delete("/{id}", h.DeleteMedication)
	})
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.ListAppointments)
		r.Post("/", h.AddAppointment)
		r.Delete("/{id}", h.DeleteAppointment)
	})
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.ListContacts)
		r.Post("/", h.AddContact)
		r.Delete("/{id}", h.DeleteContact)
	})
	r.Route("/casenumbers", func(r chi.Router) {
		r.Get("/", h.ListCaseNumbers)
		r.Post("/", h.AddCaseNumber)
		r.Delete("/{id}", h.DeleteCaseNumber)
	})
}

// ListMedications handles GET /api/medications.
func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListMedications(r.Context())
	writeList(w, "medications", items, err)
}

// AddMedication handles POST /api/medications.
func (h *Handler) AddMedication(w http.ResponseWriter, r *http.Request) {
	var m domain.Medication
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if m.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := h.repo.AddMedication(r.Context(), m)
	if err != nil {
		slog.Error("failed to add medication", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add medication")
		return
	}
	m.ID = id
	JSON(w, http.StatusCreated, m)
}

// DeleteMedication handles DELETE /api/medications/{id}.
func (h *Handler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "medication", h.repo.DeleteMedication)
}

// ListAppointments handles GET /api/appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListAppointments(r.Context())
	writeList(w, "appointments", items, err)
}

// AddAppointment handles POST /api/appointments.
func (h *Handler) AddAppointment(w http.ResponseWriter, r *http.Request) {
	var a domain.Appointment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	id, err := h.repo.AddAppointment(r.Context(), a)
	if err != nil {
		slog.Error("failed to add appointment", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add appointment")
		return
	}
	a.ID = id
	JSON(w, http.StatusCreated, a)
}

// DeleteAppointment handles DELETE /api/appointments/{id}.
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "appointment", h.repo.DeleteAppointment)
}

// ListContacts handles GET /api/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListContacts(r.Context())
	writeList(w, "contacts", items, err)
}

// AddContact handles POST /api/contacts.
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := h.repo.AddContact(r.Context(), c)
	if err != nil {
		slog.Error("failed to add contact", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add contact")
		return
	}
	c.ID = id
	JSON(w, http.StatusCreated, c)
}

// DeleteContact handles DELETE /api/contacts/{id}.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "contact", h.repo.DeleteContact)
}

// ListCaseNumbers handles GET /api/casenumbers.
func (h *Handler) ListCaseNumbers(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListCaseNumbers(r.Context())
	writeList(w, "case numbers", items, err)
}

// AddCaseNumber handles POST /api/casenumbers.
func (h *Handler) AddCaseNumber(w http.ResponseWriter, r *http.Request) {
	var n domain.CaseNumber
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n.Number == "" {
		Error(w, http.StatusBadRequest, "number is required")
		return
	}
	id, err := h.repo.AddCaseNumber(r.Context(), n)
	if err != nil {
		slog.Error("failed to add case number", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add case number")
		return
	}
	n.ID = id
	JSON(w, http.StatusCreated, n)
}

// DeleteCaseNumber handles DELETE /api/casenumbers/{id}.
func (h *Handler) DeleteCaseNumber(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "case number", h.repo.DeleteCaseNumber)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, kind string, del func(ctx context.Context, id int64) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := del(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, kind+" not found")
			return
		}
		slog.Error("failed to delete record", "kind", kind, "id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete "+kind)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeList[T any](w http.ResponseWriter, kind string, items []T, err error) {
	if err != nil {
		slog.Error("failed to list records", "kind", kind, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list "+kind)
		return
	}
	if items == nil {
		items = []T{}
	}
	JSON(w, http.StatusOK, items)
}
