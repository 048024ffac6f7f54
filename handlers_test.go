package main

import (
	"errors"
	"net/http"
	"testing"

	"github.com/mmlivehub/opsboard_backend/models"
)

func TestSubmitErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"batch validation", &models.BatchValidationError{Errors: []models.EntryError{{Index: 0, Kind: "incomplete"}}}, http.StatusUnprocessableEntity},
		{"duplicate report", models.ErrDuplicateShiftReport, http.StatusConflict},
		{"no employee profile", models.ErrEmployeeNotLinked, http.StatusForbidden},
		{"not signed in", models.ErrUserNotAuthenticated, http.StatusUnauthorized},
		{"entry count out of range", models.ErrEntryCountOutOfRange, http.StatusBadRequest},
		{"unknown device", models.ErrUnknownDevice, http.StatusBadRequest},
		{"unknown seller account", models.ErrUnknownSellerAccount, http.StatusBadRequest},
		{"database failure", errors.New("driver: bad connection"), http.StatusInternalServerError},
		{"commit failure", errors.New("invalid connection"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := submitErrorStatus(tc.err); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}
