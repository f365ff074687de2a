package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/delivery"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// DeliveryController serves the cutoff settings, the non-delivery calendar
// and the delivery estimate computed from both.
type DeliveryController struct {
	Store    store.DeliveryStore
	Location *time.Location
	Now      func() time.Time
	Debug    bool
}

func NewDeliveryController(s store.DeliveryStore, loc *time.Location, debug bool) *DeliveryController {
	return &DeliveryController{Store: s, Location: loc, Now: time.Now, Debug: debug}
}

// Estimate computes the delivery date for an order placed now.
func (dc *DeliveryController) Estimate(ctx context.Context) (delivery.Estimate, error) {
	ds, err := dc.Store.GetDeliverySetting(ctx)
	if err != nil {
		return delivery.Estimate{}, err
	}
	days, err := dc.Store.ListNonDeliveryDays(ctx)
	if err != nil {
		return delivery.Estimate{}, err
	}

	exclusions := make([]delivery.Exclusion, 0, len(days))
	for _, d := range days {
		date, err := d.Day(dc.Location)
		if err != nil {
			slog.Warn("Skipping malformed non-delivery day", "id", d.ID, "date", d.Date)
			continue
		}
		exclusions = append(exclusions, delivery.Exclusion{Date: date, Yearly: d.IsRecurringYearly})
	}

	return delivery.Calculate(dc.Now().In(dc.Location), settingsOf(ds), exclusions)
}

func settingsOf(ds *models.DeliverySetting) delivery.Settings {
	return delivery.Settings{
		CutoffHour:     ds.CutoffHour,
		CutoffMinute:   ds.CutoffMinute,
		ProcessingDays: ds.ProcessingDays,
	}
}

type estimateResponse struct {
	Date     string            `json:"date"`
	Display  string            `json:"display"`
	Message  string            `json:"message"`
	Messages map[string]string `json:"messages"`
}

func newEstimateResponse(e delivery.Estimate, lang string) estimateResponse {
	return estimateResponse{
		Date:     e.Date.Format(models.DateLayout),
		Display:  e.Display,
		Message:  e.MessageFor(lang),
		Messages: e.Messages,
	}
}

// GetEstimate answers GET /api/delivery-estimate?lang=
func (dc *DeliveryController) GetEstimate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	est, err := dc.Estimate(ctx)
	if err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newEstimateResponse(est, r.URL.Query().Get("lang")))
}

// GetSettings returns the stored settings or the defaults.
func (dc *DeliveryController) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ds, err := dc.Store.GetDeliverySetting(ctx)
	if err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ds)
}

// UpdateSettings handles PUT /api/delivery-settings (Admin only)
func (dc *DeliveryController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var ds models.DeliverySetting
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil {
		writeError(w, models.ValidationError("invalid input"), dc.Debug)
		return
	}
	if err := settingsOf(&ds).Validate(); err != nil {
		writeError(w, models.ValidationError(err.Error()), dc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := dc.Store.SaveDeliverySetting(ctx, &ds); err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ds)
}

func (dc *DeliveryController) ListNonDeliveryDays(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	days, err := dc.Store.ListNonDeliveryDays(ctx)
	if err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, days)
}

// CreateNonDeliveryDay handles POST /api/non-delivery-days (Admin only)
func (dc *DeliveryController) CreateNonDeliveryDay(w http.ResponseWriter, r *http.Request) {
	var day models.NonDeliveryDay
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		writeError(w, models.ValidationError("invalid input"), dc.Debug)
		return
	}
	if err := day.Validate(); err != nil {
		writeError(w, err, dc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := dc.Store.CreateNonDeliveryDay(ctx, &day); err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, day)
}

// DeleteNonDeliveryDay handles DELETE /api/non-delivery-days/{id} (Admin only)
func (dc *DeliveryController) DeleteNonDeliveryDay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, dc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := dc.Store.DeleteNonDeliveryDay(ctx, id); err != nil {
		writeError(w, err, dc.Debug)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
