package router

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"datamarket/internal/auth"
	"datamarket/internal/config"
	apperrors "datamarket/internal/errors"
	"datamarket/internal/handler"
	"datamarket/internal/logging"
	"datamarket/internal/metrics"
	"datamarket/internal/model"
	"datamarket/internal/service"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	Dataset  *handler.DatasetHandler
	Purchase *handler.PurchaseHandler
	Payment  *handler.PaymentHandler
	Admin    *handler.AdminHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, log *zap.Logger, authService service.AuthService, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB)))
	e.Use(metrics.Middleware())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := JWT(authService)
	api := e.Group("/api")

	// Public routes
	api.POST("/signup", h.Auth.Signup)
	api.POST("/login", h.Auth.Login)
	api.POST("/forgot-password", h.Auth.ForgotPassword)
	api.POST("/reset-password", h.Auth.ResetPassword)
	api.GET("/datasets", h.Dataset.Search)
	api.GET("/datasets/:id", h.Dataset.Get)
	api.GET("/datasets/:id/stats", h.Dataset.Stats)

	// Authenticated routes
	api.POST("/logout", h.Auth.Logout, requireAuth)
	api.GET("/profile", h.Auth.Profile, requireAuth)
	api.POST("/datasets", h.Dataset.Upload, requireAuth)
	api.DELETE("/datasets/user/:id", h.Dataset.DeleteOwn, requireAuth)
	api.GET("/datasets/:id/download", h.Dataset.Download, requireAuth)
	api.GET("/datasets/:id/files/:index", h.Dataset.StreamFile, requireAuth)
	api.POST("/purchases/purchase", h.Purchase.Purchase, requireAuth)
	api.GET("/purchases/user/:userId", h.Purchase.ListForUser, requireAuth)
	api.POST("/payment/razorpay/:id", h.Payment.CreateOrder, requireAuth)
	api.POST("/payment/verify", h.Payment.Verify, requireAuth)

	// Admin routes
	admin := api.Group("/admin", requireAuth, auth.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.ListUsers)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.PATCH("/users/:id/role", h.Admin.ChangeRole)
	admin.DELETE("/users/:id/datasets", h.Admin.DeleteUserDatasets)
	admin.GET("/datasets", h.Admin.ListDatasets)
	admin.DELETE("/datasets/:id", h.Admin.DeleteDataset)
	admin.GET("/purchases", h.Admin.ListPurchases)
	admin.GET("/recent-purchases", h.Admin.RecentPurchases)
	admin.GET("/stats", h.Admin.Stats)
}

// JWT authenticates bearer tokens through authService so that revoked
// tokens are rejected. A missing token is a 401, any other failure a 403.
func JWT(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: auth.ContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if !auth.HasBearer(c.Request()) {
				err = apperrors.ErrUnauthorized
			}
			httpErr := apperrors.MapErrorToHTTP(err)
			if httpErr.StatusCode == http.StatusInternalServerError {
				httpErr = apperrors.MapErrorToHTTP(apperrors.ErrInvalidSession)
			}
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
