package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"datamarket/internal/auth"
	"datamarket/internal/config"
	"datamarket/internal/db"
	"datamarket/internal/handler"
	"datamarket/internal/model"
	"datamarket/internal/payment"
	"datamarket/internal/repository"
	"datamarket/internal/service"
	"datamarket/internal/storage"
)

const gatewaySecret = "rzp_secret"

type fakeNotifier struct {
	mu        sync.Mutex
	welcomed  []string
	resetURLs []string
}

func (n *fakeNotifier) SendWelcome(_ context.Context, to, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomed = append(n.welcomed, to)
	return nil
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, _, resetURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetURLs = append(n.resetURLs, resetURL)
	return nil
}

func (n *fakeNotifier) lastResetURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resetURLs) == 0 {
		return ""
	}
	return n.resetURLs[len(n.resetURLs)-1]
}

// fakeRazorpay echoes created orders back on fetch.
func fakeRazorpay(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu     sync.Mutex
		orders = map[string]payment.Order{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/orders":
			var req payment.OrderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			o := payment.Order{
				ID:       "order_" + strconv.Itoa(len(orders)+1),
				Amount:   req.Amount,
				Currency: req.Currency,
				Receipt:  req.Receipt,
				Status:   "created",
				Notes:    req.Notes,
			}
			orders[o.ID] = o
			_ = json.NewEncoder(w).Encode(o)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/orders/"):
			o, ok := orders[strings.TrimPrefix(r.URL.Path, "/v1/orders/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`)
				return
			}
			_ = json.NewEncoder(w).Encode(o)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testApp struct {
	e        *echo.Echo
	users    repository.UserRepository
	notifier *fakeNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gormDB, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{MaxUploadMB: 10, PublicBaseURL: "http://market.test", PaymentCurrency: "INR"}
	log := zap.NewNop()
	notifier := &fakeNotifier{}
	gateway := payment.NewRazorpay("rzp_key", gatewaySecret, fakeRazorpay(t).URL)

	userRepo := repository.NewUserRepository(gormDB)
	datasetRepo := repository.NewDatasetRepository(gormDB)
	purchaseRepo := repository.NewPurchaseRepository(gormDB)

	authService := service.NewAuthService(userRepo, auth.NewJWTService("test-secret"), auth.NewTokenStore(nil), notifier, "http://frontend.test", log)
	datasetService := service.NewDatasetService(datasetRepo, purchaseRepo, store, nil, log)
	purchaseService := service.NewPurchaseService(purchaseRepo, userRepo, datasetRepo)
	paymentService := service.NewPaymentService(gateway, datasetRepo, purchaseService, cfg.PaymentCurrency, log)
	downloadService := service.NewDownloadService(datasetRepo, purchaseService, store, cfg.PublicBaseURL)
	adminService := service.NewAdminService(userRepo, datasetRepo, purchaseRepo, datasetService)

	e := echo.New()
	Register(e, cfg, log, authService, Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Dataset:  handler.NewDatasetHandler(datasetService, downloadService),
		Purchase: handler.NewPurchaseHandler(purchaseService, datasetService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Admin:    handler.NewAdminHandler(adminService),
	})
	return &testApp{e: e, users: userRepo, notifier: notifier}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) signup(t *testing.T, name, email, password string) uint {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/signup", map[string]string{"name": name, "email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handler.SignupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User.ID
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (a *testApp) admin(t *testing.T) string {
	t.Helper()
	id := a.signup(t, "Root", "root@x.com", "rootpw")
	require.NoError(t, a.users.UpdateRole(context.Background(), id, model.RoleAdmin))
	return a.login(t, "root@x.com", "rootpw")
}

func (a *testApp) upload(t *testing.T, token, title, price string, files map[string]string) handler.DatasetResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", title+" description"))
	require.NoError(t, w.WriteField("price", price))
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ds handler.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	return ds
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSignupLogin(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Alice", "a@x.com", "pw1")

	token := app.login(t, "a@x.com", "pw1")

	rec := app.do(t, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec)["code"])

	rec = app.do(t, http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "a@x.com", profile.User.Email)
	assert.Equal(t, "user", profile.User.Role)
	assert.Equal(t, []string{"a@x.com"}, app.notifier.welcomed)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Alice", "a@x.com", "pw1")

	rec := app.do(t, http.MethodPost, "/api/signup", map[string]string{"name": "Mallory", "email": "a@x.com", "password": "other"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	app.login(t, "a@x.com", "pw1")
	stored, err := app.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
}

func TestSignup_MissingFields(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/api/signup", map[string]string{"email": "a@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Bob", "b@x.com", "pw")
	token := app.login(t, "b@x.com", "pw")

	rec := app.do(t, http.MethodGet, "/api/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/profile", nil, "not-a-jwt")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INVALID_SESSION", decodeError(t, rec)["code"])

	rec = app.do(t, http.MethodGet, "/api/admin/dashboard", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminChangeRole(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.admin(t)
	userID := app.signup(t, "Carol", "c@x.com", "pw")
	rolePath := "/api/admin/users/" + strconv.Itoa(int(userID)) + "/role"

	rec := app.do(t, http.MethodPatch, rolePath, map[string]string{"role": "superuser"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ROLE", decodeError(t, rec)["code"])

	rec = app.do(t, http.MethodPatch, rolePath, map[string]string{"role": "admin"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.ChangeRoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "User role updated to admin", resp.Message)

	token := app.login(t, "c@x.com", "pw")
	rec = app.do(t, http.MethodGet, "/api/admin/dashboard", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPatch, rolePath, map[string]string{"role": "admin"}, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPatch, "/api/admin/users/999/role", map[string]string{"role": "user"}, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Dan", "d@x.com", "old")

	rec := app.do(t, http.MethodPost, "/api/forgot-password", map[string]string{"email": "nobody@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/forgot-password", map[string]string{"email": "d@x.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	link, err := url.Parse(app.notifier.lastResetURL())
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	reset := map[string]string{
		"token":       link.Query().Get("token"),
		"email":       link.Query().Get("email"),
		"newPassword": "new",
	}

	rec = app.do(t, http.MethodPost, "/api/reset-password", reset, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	app.login(t, "d@x.com", "new")

	// tokens are single use
	rec = app.do(t, http.MethodPost, "/api/reset-password", reset, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadRequiresPurchase(t *testing.T) {
	app := newTestApp(t)
	sellerID := app.signup(t, "Seller", "s@x.com", "pw")
	sellerToken := app.login(t, "s@x.com", "pw")
	buyerID := app.signup(t, "Buyer", "buyer@x.com", "pw")
	buyerToken := app.login(t, "buyer@x.com", "pw")

	ds := app.upload(t, sellerToken, "Weather 2024", "0", map[string]string{"weather.json": `{"temp":21}`})
	assert.Equal(t, sellerID, ds.UploaderID)
	assert.Equal(t, 1, ds.FileCount)
	dsPath := "/api/datasets/" + strconv.Itoa(int(ds.ID))

	rec := app.do(t, http.MethodGet, dsPath+"/download", nil, buyerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	purchase := map[string]uint{"userId": buyerID, "datasetId": ds.ID}
	rec = app.do(t, http.MethodPost, "/api/purchases/purchase", purchase, buyerToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/purchases/purchase", purchase, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var again handler.PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, "Already purchased", again.Message)

	rec = app.do(t, http.MethodGet, dsPath+"/download", nil, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dl handler.DownloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dl))
	require.Len(t, dl.DownloadURLs, 1)
	assert.Equal(t, "http://market.test"+dsPath+"/files/0", dl.DownloadURLs[0])
	assert.Equal(t, "weather.json", dl.Files[0].Name)

	rec = app.do(t, http.MethodGet, dsPath+"/files/0", nil, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"temp":21}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "weather.json")

	rec = app.do(t, http.MethodGet, "/api/purchases/user/"+strconv.Itoa(int(buyerID)), nil, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []model.PurchasedDataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	require.Len(t, owned, 1)
	assert.Equal(t, "Weather 2024", owned[0].Title)

	// another user's purchase list is off limits
	rec = app.do(t, http.MethodGet, "/api/purchases/user/"+strconv.Itoa(int(buyerID)), nil, sellerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaidDatasetCheckout(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Seller", "s@x.com", "pw")
	sellerToken := app.login(t, "s@x.com", "pw")
	buyerID := app.signup(t, "Buyer", "buyer@x.com", "pw")
	buyerToken := app.login(t, "buyer@x.com", "pw")

	ds := app.upload(t, sellerToken, "Census", "49.99", map[string]string{"census.json": `[]`})

	rec := app.do(t, http.MethodPost, "/api/purchases/purchase", map[string]uint{"userId": buyerID, "datasetId": ds.ID}, buyerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PAYMENT_REQUIRED", decodeError(t, rec)["code"])

	rec = app.do(t, http.MethodPost, "/api/payment/razorpay/"+strconv.Itoa(int(ds.ID)), nil, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var order service.OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(4999), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_key", order.Key)

	verify := map[string]interface{}{
		"orderId":   order.OrderID,
		"paymentId": "pay_1",
		"signature": payment.Sign(gatewaySecret, order.OrderID, "pay_2"),
		"datasetId": ds.ID,
	}
	rec = app.do(t, http.MethodPost, "/api/payment/verify", verify, buyerToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	verify["signature"] = payment.Sign(gatewaySecret, order.OrderID, "pay_1")
	rec = app.do(t, http.MethodPost, "/api/payment/verify", verify, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified handler.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.True(t, verified.Success)
	require.NotNil(t, verified.Purchase)
	assert.Equal(t, buyerID, verified.Purchase.UserID)

	rec = app.do(t, http.MethodGet, "/api/datasets/"+strconv.Itoa(int(ds.ID))+"/download", nil, buyerToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentVerify_OrderForAnotherDataset(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Seller", "s@x.com", "pw")
	sellerToken := app.login(t, "s@x.com", "pw")
	app.signup(t, "Buyer", "buyer@x.com", "pw")
	buyerToken := app.login(t, "buyer@x.com", "pw")

	cheap := app.upload(t, sellerToken, "Cheap", "1.00", map[string]string{"a.json": `1`})
	pricey := app.upload(t, sellerToken, "Pricey", "999.00", map[string]string{"b.json": `2`})

	rec := app.do(t, http.MethodPost, "/api/payment/razorpay/"+strconv.Itoa(int(cheap.ID)), nil, buyerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var order service.OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	rec = app.do(t, http.MethodPost, "/api/payment/verify", map[string]interface{}{
		"orderId":   order.OrderID,
		"paymentId": "pay_1",
		"signature": payment.Sign(gatewaySecret, order.OrderID, "pay_1"),
		"datasetId": pricey.ID,
	}, buyerToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VERIFICATION_FAILED", decodeError(t, rec)["code"])
}

func TestCatalogAndAdmin(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.admin(t)
	sellerID := app.signup(t, "Seller", "s@x.com", "pw")
	sellerToken := app.login(t, "s@x.com", "pw")

	app.upload(t, sellerToken, "Traffic Counts", "0", map[string]string{"t.json": `[]`})
	mine := app.upload(t, sellerToken, "Rainfall", "0", map[string]string{"r.json": `[]`})

	rec := app.do(t, http.MethodGet, "/api/datasets?search=TRAFFIC", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found []handler.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Traffic Counts", found[0].Title)

	rec = app.do(t, http.MethodGet, "/api/datasets/"+strconv.Itoa(int(mine.ID))+"/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalPurchases":0,"lastHourPurchases":0}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.AdminStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalDatasets)
	assert.Equal(t, int64(2), stats.TotalUsers)
	require.Len(t, stats.UploadsByDate, 1)
	assert.Equal(t, int64(2), stats.UploadsByDate[0].Count)

	rec = app.do(t, http.MethodDelete, "/api/datasets/user/"+strconv.Itoa(int(mine.ID)), nil, adminToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/datasets/user/"+strconv.Itoa(int(mine.ID)), nil, sellerToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/admin/users/"+strconv.Itoa(int(sellerID))+"/datasets", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted handler.DeletedCountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, 1, deleted.Deleted)

	rec = app.do(t, http.MethodGet, "/api/datasets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPurchase_UnknownDataset(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.admin(t)
	buyerID := app.signup(t, "Buyer", "buyer@x.com", "pw")
	buyerToken := app.login(t, "buyer@x.com", "pw")

	for _, token := range []string{buyerToken, adminToken} {
		rec := app.do(t, http.MethodPost, "/api/purchases/purchase", map[string]uint{"userId": buyerID, "datasetId": 999}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, "INVALID_REFERENCE", decodeError(t, rec)["code"])
	}
}

func TestPasswordTooLongForBcrypt(t *testing.T) {
	app := newTestApp(t)
	long := strings.Repeat("x", 80)

	rec := app.do(t, http.MethodPost, "/api/signup", map[string]string{"name": "Eve", "email": "e@x.com", "password": long}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec)["code"])

	app.signup(t, "Eve", "e@x.com", "short")
	rec = app.do(t, http.MethodPost, "/api/forgot-password", map[string]string{"email": "e@x.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	link, err := url.Parse(app.notifier.lastResetURL())
	require.NoError(t, err)

	rec = app.do(t, http.MethodPost, "/api/reset-password", map[string]string{
		"token":       link.Query().Get("token"),
		"email":       "e@x.com",
		"newPassword": long,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec)["code"])
	app.login(t, "e@x.com", "short")
}
