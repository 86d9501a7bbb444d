package routes_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/handlers"
	"bookflower-loyalty/internal/api/routes"
	"bookflower-loyalty/internal/middleware"
	"bookflower-loyalty/internal/testutil/memstore"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/pkg/coupon"
	"bookflower-loyalty/pkg/jwt"
	"bookflower-loyalty/pkg/ledger"
	"bookflower-loyalty/pkg/reward"
	"bookflower-loyalty/pkg/streak"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceToken = "service-secret"

type testServer struct {
	app     *fiber.App
	jwt     jwt.JWTService
	ledger  ledger.LedgerService
	catalog coupon.CatalogService
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	utils.InitValidator()

	store := memstore.New()
	clock := utils.Clock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })

	ledgerService := ledger.NewLedgerService(store, store, clock)
	streakService := streak.NewStreakService(store, ledgerService, store)
	catalogService := coupon.NewCatalogService(store)
	couponService := coupon.NewCouponService(store, catalogService, ledgerService, store, coupon.NewCodeGenerator(), clock)
	rewardService := reward.NewRewardService(store, ledgerService, streakService, store, utils.Validate, clock, time.UTC)
	dashboardService := reward.NewDashboardService(ledgerService, streakService, catalogService, couponService)

	_, err := catalogService.Seed(context.Background(), coupon.DefaultSeeds)
	require.NoError(t, err)

	s := &testServer{
		app:     fiber.New(),
		jwt:     jwt.NewJWTService("jwt-secret"),
		ledger:  ledgerService,
		catalog: catalogService,
	}
	cfg := routes.Config{
		App:           s.app,
		PointHandler:  handlers.NewPointHandler(ledgerService, streakService, dashboardService),
		CouponHandler: handlers.NewCouponHandler(couponService, catalogService, utils.Validate),
		EventHandler:  handlers.NewEventHandler(rewardService),
		Middleware:    middleware.NewMiddleware("*", serviceToken),
		JWTService:    s.jwt,
	}
	cfg.Setup()
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func (s *testServer) bearer(userID, role string) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + s.jwt.GenerateTokenUser(userID, role)}
}

func service() map[string]string {
	return map[string]string{middleware.ServiceTokenHeader: serviceToken}
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPointsRequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/rewards/points", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/rewards/points", nil, map[string]string{fiber.HeaderAuthorization: "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAvailableCouponsArePublic(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/rewards/coupons/available", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var definitions []domain.CouponDefinition
	require.NoError(t, json.Unmarshal(env.Data, &definitions))
	assert.Len(t, definitions, 3)
}

func TestEventsRequireServiceToken(t *testing.T) {
	s := newTestServer(t)
	event := domain.NoteCreated{UserID: "reader", BookRef: "isbn-1"}

	status, _ := s.do(t, http.MethodPost, "/api/v1/rewards/events/note-created", event, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/rewards/events/note-created", event,
		map[string]string{middleware.ServiceTokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/api/v1/rewards/events/note-created", event, service())
	require.Equal(t, http.StatusOK, status)
	var result domain.RewardResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, domain.NotePoints, result.AwardedPoints)
}

func TestInvalidEventIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/rewards/events/book-completed",
		domain.BookCompleted{Status: domain.BookStatusCompleted}, service())
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEarnExchangeAndRedeem(t *testing.T) {
	s := newTestServer(t)
	user := s.bearer("reader", domain.RoleUser)

	for i, book := range []string{"isbn-1", "isbn-2", "isbn-3", "isbn-4"} {
		status, _ := s.do(t, http.MethodPost, "/api/v1/rewards/events/book-completed", domain.BookCompleted{
			EventID:        "evt-" + book,
			UserID:         "reader",
			BookRef:        book,
			TotalPages:     350,
			NoteCount:      10,
			PreviousStatus: "reading",
			Status:         domain.BookStatusCompleted,
			OccurredAt:     time.Date(2025, 3, 1+i, 20, 0, 0, 0, time.UTC),
		}, service())
		require.Equal(t, http.StatusOK, status)
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/rewards/points", nil, user)
	require.Equal(t, http.StatusOK, status)
	var summary domain.PointSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 680, summary.Available)
	assert.Equal(t, 4, summary.CurrentStreak)

	americano := s.catalog.ListActive()[0]
	status, env = s.do(t, http.MethodPost, "/api/v1/rewards/coupons/"+americano.ID+"/exchange", nil, user)
	require.Equal(t, http.StatusCreated, status)
	var exchanged domain.ExchangeCouponResponse
	require.NoError(t, json.Unmarshal(env.Data, &exchanged))
	assert.True(t, exchanged.Success)
	require.NotEmpty(t, exchanged.CouponCode)

	// not enough left for a second one
	status, env = s.do(t, http.MethodPost, "/api/v1/rewards/coupons/"+americano.ID+"/exchange", nil, user)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	var rejected domain.ExchangeCouponResponse
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.False(t, rejected.Success)
	assert.Equal(t, domain.ErrInsufficientBalance.Error(), rejected.Reason)

	status, _ = s.do(t, http.MethodGet, "/api/v1/rewards/coupons/use/"+exchanged.CouponCode, nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, "/api/v1/rewards/coupons/use/"+exchanged.CouponCode, nil, nil)
	require.Equal(t, http.StatusOK, status)
	var redeemed domain.RedeemCouponResponse
	require.NoError(t, json.Unmarshal(env.Data, &redeemed))
	assert.True(t, redeemed.Success)

	status, _ = s.do(t, http.MethodPost, "/api/v1/rewards/coupons/use/"+exchanged.CouponCode, nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/rewards/coupons/my?status=used", nil, user)
	require.Equal(t, http.StatusOK, status)
	var mine struct {
		Coupons    []domain.IssuedCoupon `json:"coupons"`
		Pagination domain.Pagination     `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Coupons, 1)
	assert.EqualValues(t, 1, mine.Pagination.Total)

	status, _ = s.do(t, http.MethodGet, "/api/v1/rewards/coupons/my?status=lost", nil, user)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/rewards/points/verify", nil, user)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/rewards/dashboard", nil, user)
	require.Equal(t, http.StatusOK, status)
	var dashboard domain.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	assert.Len(t, dashboard.RecentTransactions, 5)
	assert.Empty(t, dashboard.MyCoupons)
}

func TestRedeemUnknownCodeIsNotFound(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/rewards/coupons/use/NOSUCHCODE00", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	var redeemed domain.RedeemCouponResponse
	require.NoError(t, json.Unmarshal(env.Data, &redeemed))
	assert.False(t, redeemed.Success)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	latte := s.catalog.ListActive()[1]
	body := map[string]bool{"is_active": false}

	status, _ := s.do(t, http.MethodPatch, "/api/v1/rewards/admin/catalog/"+latte.ID, body, s.bearer("reader", domain.RoleUser))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/rewards/admin/catalog/"+latte.ID, body, s.bearer("root", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, s.catalog.ListActive(), 2)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/rewards/admin/catalog/"+latte.ID, map[string]any{}, s.bearer("root", domain.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/rewards/admin/catalog/reload", nil, s.bearer("root", domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, status)
}

func TestPointHistoryPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		_, err := s.ledger.Credit(context.Background(), domain.PointRequest{
			UserID: "reader", Amount: 2, Source: domain.SourceNote, Reason: "note",
		})
		require.NoError(t, err)
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/rewards/points/history?page=2&limit=2", nil, s.bearer("reader", domain.RoleUser))
	require.Equal(t, http.StatusOK, status)
	var history struct {
		Transactions []domain.PointTransaction `json:"transactions"`
		Pagination   domain.Pagination         `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history.Transactions, 1)
	assert.EqualValues(t, 2, history.Pagination.TotalPages)
}
