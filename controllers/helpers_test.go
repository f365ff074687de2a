package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/keighl/postmark"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gantuuu/Elbeg-sub001/middleware"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

var ulaanbaatar = time.FixedZone("ULAT", 8*60*60)

// fixedNow is a Sunday afternoon, before the default 18:00 cutoff.
var fixedNow = time.Date(2024, time.March, 10, 17, 0, 0, 0, ulaanbaatar)

var (
	admin    = &models.User{ID: 1, Email: "admin@elbeg.mn", IsAdmin: true}
	customer = &models.User{ID: 2, Email: "bat@example.mn"}
	stranger = &models.User{ID: 3, Email: "dorj@example.mn"}
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []postmark.Email
}

func (m *recordingMailer) SendEmail(e postmark.Email) (postmark.EmailResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return postmark.EmailResponse{}, nil
}

func (m *recordingMailer) Sent() []postmark.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]postmark.Email(nil), m.sent...)
}

type fixture struct {
	store    *store.GormStore
	delivery *DeliveryController
	orders   *OrderController
	feed     *OrderFeed
	mailer   *recordingMailer
}

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.OpenGorm("sqlite", fmt.Sprintf("file:ctl_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)
	dc := NewDeliveryController(s, ulaanbaatar, true)
	dc.Now = func() time.Time { return fixedNow }

	mailer := &recordingMailer{}
	feed := NewOrderFeed()
	oc := NewOrderController(s, dc, utils.NewEmailServiceWithMailer(mailer, "orders@elbeg.mn"), feed,
		store.OrderOptions{MissingProduct: store.MissingProductSkip, IdempotencyWindow: time.Hour}, true, true)
	oc.async = func(f func()) { f() }

	return &fixture{store: s, delivery: dc, orders: oc, feed: feed, mailer: mailer}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:             name,
		Category:         "beef",
		Price:            decimal.RequireFromString(price),
		Stock:            stock,
		MinOrderQuantity: 1,
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// request builds a request as user (nil for a guest) with optional mux vars.
func request(method, target string, body any, user *models.User, vars map[string]string) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(middleware.WithPrincipal(r.Context(), middleware.Principal{User: user}))
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
