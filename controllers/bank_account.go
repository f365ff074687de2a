package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// BankAccountController serves the transfer targets shown at checkout.
type BankAccountController struct {
	Store store.BankAccountStore
	Debug bool
}

func NewBankAccountController(s store.BankAccountStore, debug bool) *BankAccountController {
	return &BankAccountController{Store: s, Debug: debug}
}

func (bc *BankAccountController) GetBankAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accounts, err := bc.Store.ListBankAccounts(ctx)
	if err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, accounts)
}

func (bc *BankAccountController) GetDefaultBankAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	account, err := bc.Store.DefaultBankAccount(ctx)
	if err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (bc *BankAccountController) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	var account models.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, models.ValidationError("invalid input"), bc.Debug)
		return
	}
	if err := account.Validate(); err != nil {
		writeError(w, err, bc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := bc.Store.CreateBankAccount(ctx, &account); err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, account)
}

func (bc *BankAccountController) UpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	var account models.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, models.ValidationError("invalid input"), bc.Debug)
		return
	}
	account.ID = id
	if err := account.Validate(); err != nil {
		writeError(w, err, bc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := bc.Store.UpdateBankAccount(ctx, &account); err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (bc *BankAccountController) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, bc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := bc.Store.DeleteBankAccount(ctx, id); err != nil {
		writeError(w, err, bc.Debug)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
