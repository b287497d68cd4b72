package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errBusinessNotFound = errors.New("business not found")

type business struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Cuts []string `json:"cuts"`
}

type businessPayload struct {
	Name string   `json:"name"`
	Cuts []string `json:"cuts"`
}

func (s *server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT b.id, b.name, COALESCE(bc.cut_id, '')
		FROM businesses b
		LEFT JOIN business_cuts bc ON bc.business_id = b.id
		ORDER BY b.name, bc.cut_id
	`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load businesses")
		return
	}
	defer rows.Close()

	businesses := make([]business, 0)
	index := make(map[string]int)
	for rows.Next() {
		var id, name, cutID string
		if err := rows.Scan(&id, &name, &cutID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load businesses")
			return
		}
		i, ok := index[id]
		if !ok {
			i = len(businesses)
			index[id] = i
			businesses = append(businesses, business{ID: id, Name: name, Cuts: []string{}})
		}
		if cutID != "" {
			businesses[i].Cuts = append(businesses[i].Cuts, cutID)
		}
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load businesses")
		return
	}

	respondJSON(w, http.StatusOK, businesses)
}

func (s *server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	payload, err := s.parseBusinessPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create business")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO businesses (id, name) VALUES (?, ?)`, id, payload.Name); err != nil {
		respondError(w, http.StatusConflict, "business name already exists")
		return
	}
	for _, cutID := range payload.Cuts {
		if _, err := tx.Exec(`INSERT INTO business_cuts (business_id, cut_id) VALUES (?, ?)`, id, cutID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to store business cuts")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create business")
		return
	}

	respondJSON(w, http.StatusCreated, business{ID: id, Name: payload.Name, Cuts: payload.Cuts})
}

func (s *server) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, err := s.parseBusinessPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update business")
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE businesses
		SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, payload.Name, id)
	if err != nil {
		respondError(w, http.StatusConflict, "business name already exists")
		return
	}
	affected, err := result.RowsAffected()
	if err != nil || affected == 0 {
		respondError(w, http.StatusNotFound, "business not found")
		return
	}

	// The cut selection is replaced wholesale.
	if _, err := tx.Exec(`DELETE FROM business_cuts WHERE business_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update business cuts")
		return
	}
	for _, cutID := range payload.Cuts {
		if _, err := tx.Exec(`INSERT INTO business_cuts (business_id, cut_id) VALUES (?, ?)`, id, cutID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to update business cuts")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update business")
		return
	}

	respondJSON(w, http.StatusOK, business{ID: id, Name: payload.Name, Cuts: payload.Cuts})
}

// handleDeleteBusiness rejects deletion while any quotation references the
// business, without mutating anything.
func (s *server) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var referenced bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM quotations WHERE business_id = ?)`, id).Scan(&referenced); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete business")
		return
	}
	if referenced {
		respondError(w, http.StatusConflict, "business is referenced by quotations")
		return
	}

	result, err := s.db.Exec(`DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete business")
		return
	}
	affected, err := result.RowsAffected()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete business")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "business not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) parseBusinessPayload(r *http.Request) (businessPayload, error) {
	var payload businessPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("invalid request body")
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return payload, fmt.Errorf("name is required")
	}
	for _, cutID := range payload.Cuts {
		if _, ok := s.catalog.Cut(cutID); !ok {
			return payload, fmt.Errorf("unknown cut: %s", cutID)
		}
	}
	return payload, nil
}

// businessCuts returns the selected cut ids of a business.
func (s *server) businessCuts(id string) (map[string]bool, error) {
	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = ?)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check business existence: %w", err)
	}
	if !exists {
		return nil, errBusinessNotFound
	}

	rows, err := s.db.Query(`SELECT cut_id FROM business_cuts WHERE business_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query business cuts: %w", err)
	}
	defer rows.Close()

	selected := make(map[string]bool)
	for rows.Next() {
		var cutID string
		if err := rows.Scan(&cutID); err != nil {
			return nil, fmt.Errorf("scan business cut: %w", err)
		}
		selected[cutID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business cuts: %w", err)
	}

	return selected, nil
}
