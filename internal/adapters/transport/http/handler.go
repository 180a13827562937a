package http

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamhive/user-service/internal/adapters/transport/http/dto"
	"github.com/streamhive/user-service/internal/adapters/transport/http/middleware"
	"github.com/streamhive/user-service/internal/adapters/transport/http/respond"
	"github.com/streamhive/user-service/internal/app/token"
	"github.com/streamhive/user-service/internal/app/upload"
	userapp "github.com/streamhive/user-service/internal/app/user"
	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
	"github.com/streamhive/user-service/internal/infra/config"
)

type Handler struct {
	users    *userapp.Service
	uploads  *upload.Service
	tokens   *token.Service
	userRepo repo.UserRepo
	log      *zap.Logger

	cookieDomain string
	dev          bool
}

func NewHandler(
	users *userapp.Service,
	uploads *upload.Service,
	tokens *token.Service,
	userRepo repo.UserRepo,
	log *zap.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		users:        users,
		uploads:      uploads,
		tokens:       tokens,
		userRepo:     userRepo,
		log:          log,
		cookieDomain: cfg.CookieDomain,
		dev:          cfg.IsDevelopment(),
	}
}

// Mount registers all routes under /api/v1/users.
func (h *Handler) Mount(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	g := r.Group("/api/v1/users")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh-token", h.refreshToken)

	auth := middleware.Authenticate(h.tokens, h.dev)
	g.POST("/logout", auth, h.logout)
	g.POST("/change-password", auth, h.changePassword)
	g.GET("/get-user", auth, middleware.AttachFullUser(h.userRepo, h.dev), h.getUser)
	g.POST("/update-account", auth, h.updateAccount)
	g.POST("/history", auth, h.addWatchHistory)
	g.GET("/channel/:username", auth, h.channelProfile)
	g.POST("/upload", auth, h.uploadFiles)
	g.GET("/users", auth, middleware.RequireRole(h.dev, "admin"), h.listUsers)
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed request body", err), h.dev)
		return
	}

	created, err := h.users.Register(c.Request.Context(), body)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusCreated, "user registered successfully", created)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed request body", err), h.dev)
		return
	}

	u, pair, err := h.users.Login(c.Request.Context(), body)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}

	h.setTokenCookies(c, pair)
	respond.OK(c, http.StatusOK, "user logged in successfully", gin.H{
		"user":         u,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) logout(c *gin.Context) {
	principal, _ := middleware.Principal(c)

	if err := h.users.Logout(c.Request.Context(), principal.UserID); err != nil {
		respond.Fail(c, err, h.dev)
		return
	}

	h.clearTokenCookies(c)
	respond.OK(c, http.StatusOK, "user logged out", nil)
}

func (h *Handler) refreshToken(c *gin.Context) {
	presented, _ := c.Cookie(middleware.RefreshCookie)
	if presented == "" {
		var body dto.RefreshDTO
		if err := c.ShouldBindJSON(&body); err == nil {
			presented = body.RefreshToken
		}
	}
	if presented == "" {
		respond.Fail(c, apperr.New(apperr.Unauthorized, "refresh token required"), h.dev)
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), presented)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}

	h.setTokenCookies(c, pair)
	respond.OK(c, http.StatusOK, "access token refreshed successfully", gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) changePassword(c *gin.Context) {
	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed request body", err), h.dev)
		return
	}

	principal, _ := middleware.Principal(c)
	if err := h.users.ChangePassword(c.Request.Context(), principal.UserID, body); err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "password changed successfully", nil)
}

func (h *Handler) getUser(c *gin.Context) {
	u, ok := middleware.FullUser(c)
	if !ok {
		respond.Fail(c, apperr.New(apperr.Unauthorized, "authentication required"), h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "user found successfully", u.Public())
}

func (h *Handler) updateAccount(c *gin.Context) {
	var body dto.UpdateAccountDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed request body", err), h.dev)
		return
	}

	principal, _ := middleware.Principal(c)
	updated, err := h.users.UpdateAccount(c.Request.Context(), principal.UserID, body)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "details updated successfully", updated)
}

func (h *Handler) addWatchHistory(c *gin.Context) {
	var body dto.WatchHistoryDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed request body", err), h.dev)
		return
	}

	principal, _ := middleware.Principal(c)
	updated, err := h.users.AddWatchHistory(c.Request.Context(), principal.UserID, body)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "watch history updated", updated)
}

func (h *Handler) channelProfile(c *gin.Context) {
	principal, _ := middleware.Principal(c)

	profile, err := h.users.ChannelProfile(c.Request.Context(), c.Param("username"), principal.UserID)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "user channel fetched successfully", profile)
}

func (h *Handler) uploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed multipart form", err), h.dev)
		return
	}

	uploaded, err := h.uploads.UploadAll(c.Request.Context(), flattenFiles(form.File))
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusCreated, "files uploaded successfully", uploaded)
}

func (h *Handler) listUsers(c *gin.Context) {
	var query dto.ListQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		respond.Fail(c, apperr.Wrap(apperr.Validation, "malformed query", err), h.dev)
		return
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), query)
	if err != nil {
		respond.Fail(c, err, h.dev)
		return
	}
	respond.OK(c, http.StatusOK, "users fetched successfully", gin.H{
		"users": users,
		"total": total,
		"page":  query.Page,
		"limit": query.Limit,
	})
}

// flattenFiles accepts files from any multipart field name, so clients
// may post "files", "avatar", "cover" alike.
func flattenFiles(byField map[string][]*multipart.FileHeader) []*multipart.FileHeader {
	var out []*multipart.FileHeader
	for _, headers := range byField {
		out = append(out, headers...)
	}
	return out
}

func (h *Handler) setTokenCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.AccessCookie,
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		middleware.RefreshCookie,
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cookieDomain,
		true,
		true,
	)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessCookie, "", -1, "/", h.cookieDomain, true, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", h.cookieDomain, true, true)
}
