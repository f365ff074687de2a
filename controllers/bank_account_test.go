package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

func TestBankAccounts(t *testing.T) {
	f := newFixture(t)
	bc := NewBankAccountController(f.store, true)

	rec := serve(bc.GetDefaultBankAccount, request(http.MethodGet, "/api/bank-accounts/default", nil, nil, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	create := func(body map[string]any) *models.BankAccount {
		rec := serve(bc.CreateBankAccount, request(http.MethodPost, "/api/bank-accounts", body, admin, nil))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		a := decode[models.BankAccount](t, rec)
		return &a
	}
	khan := create(map[string]any{"bank_name": "Khan Bank", "account_number": "5000123456", "account_holder": "Elbeg LLC", "is_default": true})
	golomt := create(map[string]any{"bank_name": "Golomt", "account_number": "1102003004", "account_holder": "Elbeg LLC"})

	rec = serve(bc.CreateBankAccount, request(http.MethodPost, "/api/bank-accounts", map[string]any{"bank_name": "X"}, admin, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(bc.GetDefaultBankAccount, request(http.MethodGet, "/api/bank-accounts/default", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, khan.ID, decode[models.BankAccount](t, rec).ID)

	// promoting the second account demotes the first
	rec = serve(bc.UpdateBankAccount, request(http.MethodPut, "/api/bank-accounts/2",
		map[string]any{"bank_name": "Golomt", "account_number": "1102003004", "account_holder": "Elbeg LLC", "is_default": true},
		admin, map[string]string{"id": "2"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(bc.GetBankAccounts, request(http.MethodGet, "/api/bank-accounts", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	defaults := 0
	for _, a := range decode[[]models.BankAccount](t, rec) {
		if a.IsDefault {
			defaults++
			assert.Equal(t, golomt.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	rec = serve(bc.DeleteBankAccount, request(http.MethodDelete, "/api/bank-accounts/1", nil, admin, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
