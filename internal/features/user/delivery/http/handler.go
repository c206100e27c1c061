package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"picker-backend/internal/common/errors"
	"picker-backend/internal/common/middleware"
	"picker-backend/internal/features/user/models"
	"picker-backend/internal/features/user/service"
)

// DefaultImportLimit caps the size of an import body.
const DefaultImportLimit int64 = 8 << 20

type UserHandler struct {
	service     service.UserService
	importLimit int64
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service:     service,
		importLimit: DefaultImportLimit,
	}
}

type registerRequest struct {
	Name *string `json:"name"`
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.List)
		users.POST("", h.Register)
		users.GET("/:name", h.Get)
		users.DELETE("/:name", h.Delete)
		users.POST("/:name/picks", h.RecordPick)
		users.POST("/:name/victories", h.RecordVictory)
	}

	router.POST("/picks", h.Pick)
	router.POST("/sessions", h.StartSession)
	router.GET("/leaderboard", h.Leaderboard)
	router.GET("/export", h.Export)
	router.POST("/import", h.Import)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toRecords(users)})
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if req.Name == nil || *req.Name == "" {
		middleware.RespondError(c, errors.NewMissingFieldError(models.KeyName))
		return
	}

	user, err := h.service.Register(c.Request.Context(), *req.Name)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(user))
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("name")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) RecordPick(c *gin.Context) {
	user, err := h.service.RecordPick(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(user))
}

func (h *UserHandler) RecordVictory(c *gin.Context) {
	user, err := h.service.RecordVictory(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(user))
}

func (h *UserHandler) Pick(c *gin.Context) {
	user, err := h.service.Pick(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(user))
}

func (h *UserHandler) StartSession(c *gin.Context) {
	if err := h.service.StartSession(c.Request.Context()); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Leaderboard(c *gin.Context) {
	users, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	board := make([]gin.H, 0, len(users))
	for i, u := range users {
		board = append(board, gin.H{
			"rank":    i + 1,
			"user":    u.ToMap(),
			"display": u.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

func (h *UserHandler) Export(c *gin.Context) {
	snapshot, err := h.service.Export(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Import accepts a snapshot envelope or a bare array of user records.
func (h *UserHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.importLimit))
	if err != nil {
		middleware.RespondError(c, errors.Wrapf(err, errors.ErrCodeBadRequest,
			"failed to read body (limit %d bytes)", h.importLimit))
		return
	}

	snapshot, err := models.DecodeSnapshot(body)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	n, err := h.service.Import(c.Request.Context(), snapshot)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n, "version": snapshot.Version})
}

func toResponse(u *models.User) gin.H {
	return gin.H{
		"user":    u.ToMap(),
		"display": u.String(),
	}
}

func toRecords(users []*models.User) []models.Record {
	out := make([]models.Record, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToMap())
	}
	return out
}
