package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/lib/logger/sl"
	"portfolio_cms/internal/realtime"
	"portfolio_cms/internal/storage"
	"portfolio_cms/internal/transport/http/dto"
	"portfolio_cms/internal/transport/http/dto/request"
	"portfolio_cms/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	IsAdmin(principal *models.User) bool
	IsAdminEmail(email string) bool
}

type AuthService interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ParseToken(tokenString string) (*models.TokenMeta, error)
}

type PortfolioService interface {
	ListAll(ctx context.Context, collection models.Collection) ([]models.Document, error)
	ListVisible(ctx context.Context, collection models.Collection) ([]models.Document, error)
	GetProfile(ctx context.Context) (models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error
	CreateItem(ctx context.Context, collection models.Collection) (string, error)
	UpdateItem(ctx context.Context, collection models.Collection, id string, fields models.Fields) error
	SetVisibility(ctx context.Context, collection models.Collection, id string, visible bool) error
	DeleteItem(ctx context.Context, collection models.Collection, id string) error
}

type MediaService interface {
	Upload(ctx context.Context, input dto.MediaUploadInput) (*dto.MediaUploadResult, error)
}

type Routers struct {
	log              *slog.Logger
	UserService      UserService
	AuthService      AuthService
	PortfolioService PortfolioService
	MediaService     MediaService
	Hub              *realtime.Hub
}

func NewRouter(log *slog.Logger, userService UserService, authService AuthService, portfolioService PortfolioService, mediaService MediaService, hub *realtime.Hub) *Routers {
	return &Routers{
		log:              log,
		UserService:      userService,
		AuthService:      authService,
		PortfolioService: portfolioService,
		MediaService:     mediaService,
		Hub:              hub,
	}
}

// Login godoc
// @Summary Admin sign-in
// @Description Verifies credentials and returns a JWT token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid login request", slog.String("identifier", req.Identifier))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	pair, err := r.UserService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		log.Warn("login failed", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if sess, err := session.Get("session", c); err == nil {
		sess.Values["user_id"] = pair.UserID.String()
		_ = sess.Save(c.Request(), c.Response())
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pair))
}

// Refresh godoc
// @Summary Rotate the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(slog.String("op", op))

	var req request.RefreshRequest

	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.AuthService.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		log.Warn("refresh failed", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pair))
}

// Logout godoc
// @Summary End the admin session
// @Tags auth
// @Success 204
// @Security ApiKeyAuth
// @Router /api/v1/admin/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	principal := PrincipalFromContext(c)
	if principal == nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if err := r.UserService.Logout(c.Request().Context(), principal.ID); err != nil {
		r.log.Error("logout failed", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetProfile godoc
// @Summary Public profile
// @Description Returns the site owner profile, or placeholder defaults when none is saved.
// @Tags portfolio
// @Produce json
// @Success 200 {object} models.Profile
// @Router /api/v1/portfolio/profile [get]
func (r *Routers) GetProfile(c echo.Context) error {
	const op = "http.routers.GetProfile"

	profile, err := r.PortfolioService.GetProfile(c.Request().Context())
	if err != nil {
		r.log.Error("failed to get profile", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.JSON(http.StatusOK, profile)
}

// ListPublic godoc
// @Summary Public collection listing
// @Description Returns only the records with visible=true.
// @Tags portfolio
// @Produce json
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/portfolio/{collection} [get]
func (r *Routers) ListPublic(c echo.Context) error {
	const op = "http.routers.ListPublic"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	docs, err := r.PortfolioService.ListVisible(c.Request().Context(), collection)
	if err != nil {
		r.log.Error("failed to list collection", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(docs))
}

// ListAdmin godoc
// @Summary Admin collection listing
// @Description Returns every record, hidden ones included.
// @Tags admin
// @Produce json
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/{collection} [get]
func (r *Routers) ListAdmin(c echo.Context) error {
	const op = "http.routers.ListAdmin"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	docs, err := r.PortfolioService.ListAll(c.Request().Context(), collection)
	if err != nil {
		r.log.Error("failed to list collection", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(docs))
}

// CreateItem godoc
// @Summary Create a record with the default shape for its collection
// @Tags admin
// @Produce json
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Success 201 {object} response.Response{data=dto.CreateItemResponse}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/{collection} [post]
func (r *Routers) CreateItem(c echo.Context) error {
	const op = "http.routers.CreateItem"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	id, err := r.PortfolioService.CreateItem(c.Request().Context(), collection)
	if err != nil {
		r.log.Error("failed to create item", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(dto.CreateItemResponse{ID: id}))
}

// UpdateItem godoc
// @Summary Merge fields into a record
// @Description Only the supplied fields are written; everything else stays.
// @Tags admin
// @Accept json
// @Produce json
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Param id path string true "Record id"
// @Param request body object true "Partial record"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/{collection}/{id} [patch]
func (r *Routers) UpdateItem(c echo.Context) error {
	const op = "http.routers.UpdateItem"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	// decode the body by hand: binding a map would also fold the
	// collection and id route params into it
	var fields models.Fields
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := r.PortfolioService.UpdateItem(c.Request().Context(), collection, c.Param("id"), fields); err != nil {
		r.log.Error("failed to update item", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(nil))
}

// SetVisibility godoc
// @Summary Toggle a record's public visibility
// @Tags admin
// @Accept json
// @Produce json
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Param id path string true "Record id"
// @Param request body dto.VisibilityRequest true "New value"
// @Success 200 {object} response.Response
// @Security ApiKeyAuth
// @Router /api/v1/admin/{collection}/{id}/visibility [patch]
func (r *Routers) SetVisibility(c echo.Context) error {
	const op = "http.routers.SetVisibility"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	var req dto.VisibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	if err := r.PortfolioService.SetVisibility(c.Request().Context(), collection, c.Param("id"), *req.Visible); err != nil {
		r.log.Error("failed to set visibility", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(nil))
}

// DeleteItem godoc
// @Summary Delete a record
// @Description Deleting an already-absent record is a success, not an error.
// @Tags admin
// @Param collection path string true "Collection" Enums(skills, projects, posts, gallery)
// @Param id path string true "Record id"
// @Success 204
// @Security ApiKeyAuth
// @Router /api/v1/admin/{collection}/{id} [delete]
func (r *Routers) DeleteItem(c echo.Context) error {
	const op = "http.routers.DeleteItem"

	collection, err := models.ParseItemCollection(c.Param("collection"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownCollection)
	}

	if err := r.PortfolioService.DeleteItem(c.Request().Context(), collection, c.Param("id")); err != nil {
		r.log.Error("failed to delete item", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.NoContent(http.StatusNoContent)
}

// SaveProfile godoc
// @Summary Save the singleton profile
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.ProfileRequest true "Profile"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/profile [put]
func (r *Routers) SaveProfile(c echo.Context) error {
	const op = "http.routers.SaveProfile"

	var req dto.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	if err := r.PortfolioService.SaveProfile(c.Request().Context(), req.ToDomain()); err != nil {
		r.log.Error("failed to save profile", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrBackendFailure)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(nil))
}

// UploadMedia godoc
// @Summary Upload an image
// @Description Stores the file under the given folder and returns its public URL.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param folder formData string true "Destination folder" Enums(avatars, covers, skills, projects, posts, gallery)
// @Success 201 {object} response.Response{data=dto.MediaUploadResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/media/upload [post]
func (r *Routers) UploadMedia(c echo.Context) error {
	const op = "http.routers.UploadMedia"

	log := r.log.With(slog.String("op", op))

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("empty file in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "file is required"))
	}

	input := dto.MediaUploadInput{
		File:   file,
		Folder: c.FormValue("folder"),
	}

	result, err := r.MediaService.Upload(c.Request().Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidFolder):
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "unknown folder"))
		case errors.Is(err, storage.ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails("storage_error", "file too large"))
		}
		log.Error("upload failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrUploadFailed)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(result))
}

// Subscribe upgrades to a websocket and streams full collection snapshots.
// A valid admin bearer token (header or ?token=) selects the admin
// audience; everyone else gets the visible-only public stream.
func (r *Routers) Subscribe(c echo.Context) error {
	audience := realtime.AudiencePublic

	if tok := bearerToken(c); tok != "" {
		if meta, err := r.AuthService.ParseToken(tok); err == nil && r.UserService.IsAdminEmail(meta.Email) {
			audience = realtime.AudienceAdmin
		}
	}

	return realtime.ServeWS(r.Hub, c.Response(), c.Request(), audience)
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "

	if h := c.Request().Header.Get(echo.HeaderAuthorization); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return c.QueryParam("token")
}

// PrincipalFromContext rebuilds the principal from the verified JWT claims
// the admin middleware stored on the context.
func PrincipalFromContext(c echo.Context) *models.User {
	meta, ok := c.Get("principal").(*models.TokenMeta)
	if !ok || meta == nil {
		return nil
	}

	id, err := uuid.Parse(meta.UserID)
	if err != nil {
		return nil
	}

	return &models.User{ID: id, Email: meta.Email}
}
