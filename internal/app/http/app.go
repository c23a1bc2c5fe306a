package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"portfolio_cms/internal/domain/models"
	appmw "portfolio_cms/internal/middleware"
	httprouters "portfolio_cms/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "portfolio_cms/docs"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
	token   string
}

func New(log *slog.Logger, token, sessionKey, host, port, uploadsDir string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionKey))))

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	e.Static("/uploads", uploadsDir)

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    host,
		port:    port,
		token:   token,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// adminOnlyMiddleware runs after the JWT middleware has verified the
// signature. It re-checks the allow-list on every request, so revoking
// the admin email cuts access without waiting for token expiry.
func (s *Server) adminOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		email, _ := claims["email"].(string)
		uid, _ := claims["uid"].(string)

		if !s.routers.UserService.IsAdminEmail(email) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin access required"})
		}

		c.Set("principal", &models.TokenMeta{UserID: uid, Email: email})

		return next(c)
	}
}

func (s *Server) BuildRouters() {
	api := s.e.Group("/api/v1")
	{
		api.POST("/login", s.routers.Login)
		api.POST("/refresh", s.routers.Refresh)

		api.GET("/ws", s.routers.Subscribe)

		portfolioGroup := api.Group("/portfolio")
		{
			portfolioGroup.GET("/profile", s.routers.GetProfile)
			portfolioGroup.GET("/:collection", s.routers.ListPublic)
		}

		adminGroup := api.Group("/admin")
		adminGroup.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(s.token),
		}))
		adminGroup.Use(s.adminOnlyMiddleware)
		{
			adminGroup.POST("/logout", s.routers.Logout)

			adminGroup.PUT("/profile", s.routers.SaveProfile)

			adminGroup.GET("/:collection", s.routers.ListAdmin)
			adminGroup.POST("/:collection", s.routers.CreateItem)
			adminGroup.PATCH("/:collection/:id", s.routers.UpdateItem)
			adminGroup.PATCH("/:collection/:id/visibility", s.routers.SetVisibility)
			adminGroup.DELETE("/:collection/:id", s.routers.DeleteItem)

			adminGroup.POST("/media/upload", s.routers.UploadMedia)
		}

		debug := s.e.Group("/debug")
		{
			debug.GET("/statsviz/", echo.WrapHandler(s.m))
			debug.GET("/statsviz/*", echo.WrapHandler(s.m))
		}

		swagger := s.e.Group("/swag")
		{
			swagger.GET("/swagger/*", echoSwagger.WrapHandler)
		}

		s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}
