package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

func TestGetEstimate(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.delivery.GetEstimate, request(http.MethodGet, "/api/delivery-estimate?lang=en", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[estimateResponse](t, rec)
	assert.Equal(t, "2024-03-11", got.Date)
	assert.Equal(t, "Delivered by Monday, March 11", got.Message)
	assert.Contains(t, got.Messages, "mn")
}

func TestGetEstimate_SkipsNonDeliveryDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveDeliverySetting(ctx, &models.DeliverySetting{CutoffHour: 16, CutoffMinute: 30, ProcessingDays: 1}))
	require.NoError(t, f.store.CreateNonDeliveryDay(ctx, &models.NonDeliveryDay{Date: "2024-03-12", Reason: "stocktake"}))
	// recurring entry stored with an older year still applies
	require.NoError(t, f.store.CreateNonDeliveryDay(ctx, &models.NonDeliveryDay{Date: "2019-03-13", IsRecurringYearly: true}))

	rec := serve(f.delivery.GetEstimate, request(http.MethodGet, "/api/delivery-estimate", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-14", decode[estimateResponse](t, rec).Date)
}

func TestDeliverySettings(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.delivery.GetSettings, request(http.MethodGet, "/api/delivery-settings", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 18, decode[models.DeliverySetting](t, rec).CutoffHour)

	rec = serve(f.delivery.UpdateSettings, request(http.MethodPut, "/api/delivery-settings",
		map[string]int{"cutoff_hour": 24, "cutoff_minute": 0, "processing_days": 1}, admin, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.delivery.UpdateSettings, request(http.MethodPut, "/api/delivery-settings",
		map[string]int{"cutoff_hour": 14, "cutoff_minute": 15, "processing_days": 2}, admin, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ds, err := f.store.GetDeliverySetting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, ds.CutoffHour)
	assert.Equal(t, 15, ds.CutoffMinute)
	assert.Equal(t, 2, ds.ProcessingDays)
}

func TestNonDeliveryDays(t *testing.T) {
	f := newFixture(t)

	create := func(body any) int {
		return serve(f.delivery.CreateNonDeliveryDay, request(http.MethodPost, "/api/non-delivery-days", body, admin, nil)).Code
	}
	assert.Equal(t, http.StatusBadRequest, create(map[string]any{"date": "12/03/2024"}))
	assert.Equal(t, http.StatusCreated, create(map[string]any{"date": "2024-02-10", "reason": "Tsagaan sar", "is_recurring_yearly": true}))
	assert.Equal(t, http.StatusConflict, create(map[string]any{"date": "2024-02-10"}))

	rec := serve(f.delivery.ListNonDeliveryDays, request(http.MethodGet, "/api/non-delivery-days", nil, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]models.NonDeliveryDay](t, rec)
	require.Len(t, days, 1)
	assert.True(t, days[0].IsRecurringYearly)

	id := map[string]string{"id": "1"}
	rec = serve(f.delivery.DeleteNonDeliveryDay, request(http.MethodDelete, "/api/non-delivery-days/1", nil, admin, id))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(f.delivery.DeleteNonDeliveryDay, request(http.MethodDelete, "/api/non-delivery-days/1", nil, admin, id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
