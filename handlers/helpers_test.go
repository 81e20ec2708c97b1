package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/league-rating-system/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", services.ErrMatchNotFound, http.StatusNotFound},
		{"validation", services.ErrValidationFailed, http.StatusBadRequest},
		{"already accepted", services.ErrMatchAlreadyAccepted, http.StatusConflict},
		{"immediate mode consolidation", services.ErrImmediateModeLeague, http.StatusConflict},
		{"already member", services.ErrAlreadyLeagueMember, http.StatusConflict},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not league admin", services.ErrNotLeagueAdmin, http.StatusForbidden},
		{"export unavailable", services.ErrExportNotConfigured, http.StatusServiceUnavailable},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(w, r, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
