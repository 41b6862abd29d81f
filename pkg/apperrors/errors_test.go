package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"authentication", Authentication("Unauthorized"), http.StatusUnauthorized},
		{"authorization", Authorization("Only generators can submit projects"), http.StatusForbidden},
		{"validation", Validation("name", "name is required"), http.StatusBadRequest},
		{"not found", NotFound("project not found"), http.StatusNotFound},
		{"store", Store(errors.New("connection refused")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("submit: %w", Validation("hectares", "bad")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStorePassesMessageThrough(t *testing.T) {
	err := Store(errors.New(`duplicate key value violates unique constraint "wallets_user_id_key"`))
	assert.Equal(t, `duplicate key value violates unique constraint "wallets_user_id_key"`, err.Error())
	assert.True(t, Is(err, KindStore))
}

func TestStoreKeepsClassifiedErrors(t *testing.T) {
	orig := NotFound("project not found")
	assert.Same(t, orig, Store(orig))
	assert.Nil(t, Store(nil))
}

func TestValidationCarriesField(t *testing.T) {
	err := Validationf("hectares", "%s must be a positive number", "hectares")
	assert.Equal(t, "hectares", err.Field)
	assert.Equal(t, "hectares must be a positive number", err.Error())
}
