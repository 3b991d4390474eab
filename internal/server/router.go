package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gamesetuphub/confighub/backend/internal/auth"
	"github.com/gamesetuphub/confighub/backend/internal/configs"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityContextKey = "confighub_identity"

var (
	errMissingTokenValidator = errors.New("token validator dependency required")
	errMissingConfigsService = errors.New("configs service dependency required")
)

// TokenValidator resolves a bearer credential to a caller identity.
type TokenValidator interface {
	ValidateToken(token string) (auth.Identity, error)
}

// Dependencies wires the handler graph.
type Dependencies struct {
	TokenValidator TokenValidator
	ConfigsService *configs.Service
	Logger         *zap.Logger
}

// NewHTTPHandler builds the gin router exposing the configuration surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenValidator == nil {
		return nil, errMissingTokenValidator
	}
	if deps.ConfigsService == nil {
		return nil, errMissingConfigsService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:         deps.TokenValidator,
		configsService: deps.ConfigsService,
		logger:         logger,
	}

	router.GET("/health", handler.handleHealth)

	api := router.Group("/api/configs")
	api.GET("", handler.handleList)
	api.GET("/:id", handler.handleGet)
	api.GET("/:id/versions", handler.handleListVersions)
	api.GET("/:id/comments", handler.handleListComments)

	protected := router.Group("/api/configs")
	protected.Use(handler.authorizeRequest)
	protected.POST("", handler.handleCreate)
	protected.PUT("/:id", handler.handleUpdate)
	protected.DELETE("/:id", handler.handleDelete)
	protected.POST("/:id/versions", handler.handleAddVersion)
	protected.POST("/:id/comments", handler.handleAddComment)
	protected.POST("/:id/like", handler.handleLike)
	protected.POST("/:id/unlike", handler.handleUnlike)

	return router, nil
}

type httpHandler struct {
	tokens         TokenValidator
	configsService *configs.Service
	logger         *zap.Logger
}

type authorPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type versionPayload struct {
	Content          string `json:"content"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

type commentPayload struct {
	AuthorID         string `json:"author_id"`
	AuthorName       string `json:"author_name"`
	Text             string `json:"text"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

type configPayload struct {
	ID               string           `json:"id"`
	Game             string           `json:"game"`
	Description      string           `json:"description"`
	Content          string           `json:"content"`
	Tags             []string         `json:"tags"`
	Author           authorPayload    `json:"author"`
	Likes            int64            `json:"likes"`
	LikedBy          []string         `json:"liked_by"`
	Comments         []commentPayload `json:"comments"`
	Versions         []versionPayload `json:"versions"`
	CreatedAtSeconds int64            `json:"created_at_s"`
}

type listResponsePayload struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Results  []configPayload `json:"results"`
}

func toVersionPayloads(versions []configs.VersionSnapshot) []versionPayload {
	result := make([]versionPayload, 0, len(versions))
	for _, version := range versions {
		result = append(result, versionPayload{
			Content:          version.Content,
			CreatedAtSeconds: version.CreatedAtSeconds,
		})
	}
	return result
}

func toCommentPayloads(comments []configs.Comment) []commentPayload {
	result := make([]commentPayload, 0, len(comments))
	for _, comment := range comments {
		result = append(result, commentPayload{
			AuthorID:         comment.AuthorID,
			AuthorName:       comment.AuthorName,
			Text:             comment.Text,
			CreatedAtSeconds: comment.CreatedAtSeconds,
		})
	}
	return result
}

func toConfigPayload(record configs.Config) configPayload {
	tags := make([]string, 0, len(record.Tags))
	tags = append(tags, record.Tags...)
	likedBy := make([]string, 0, len(record.LikedBy))
	likedBy = append(likedBy, record.LikedBy...)

	return configPayload{
		ID:               record.ConfigID,
		Game:             record.Game,
		Description:      record.Description,
		Content:          record.Content,
		Tags:             tags,
		Author:           authorPayload{ID: record.AuthorID, Username: record.AuthorName},
		Likes:            record.LikeCount,
		LikedBy:          likedBy,
		Comments:         toCommentPayloads(record.Comments),
		Versions:         toVersionPayloads(record.Versions),
		CreatedAtSeconds: record.CreatedAtSeconds,
	}
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type createRequestPayload struct {
	Game        string   `json:"game"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
}

func (h *httpHandler) handleCreate(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	var request createRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.configsService.Create(c.Request.Context(), identity, configs.CreateInput{
		Game:        request.Game,
		Description: request.Description,
		Content:     request.Content,
		Tags:        request.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toConfigPayload(*created))
}

func (h *httpHandler) handleList(c *gin.Context) {
	request := configs.ListRequest{
		Query: c.Query("q"),
		Game:  c.Query("game"),
		Tag:   c.Query("tag"),
		Sort:  c.Query("sort"),
		Page:  parseIntParam(c.Query("page"), 1),
		Limit: parseIntParam(c.Query("limit"), 0),
	}

	result, err := h.configsService.List(c.Request.Context(), request)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response := listResponsePayload{
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Results:  make([]configPayload, 0, len(result.Results)),
	}
	for _, record := range result.Results {
		response.Results = append(response.Results, toConfigPayload(record))
	}

	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleGet(c *gin.Context) {
	record, err := h.configsService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConfigPayload(*record))
}

type updateRequestPayload struct {
	Game        *string  `json:"game"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	Tags        []string `json:"tags"`
}

func (h *httpHandler) handleUpdate(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	var request updateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.configsService.Update(c.Request.Context(), c.Param("id"), identity, configs.UpdateInput{
		Game:        request.Game,
		Description: request.Description,
		Content:     request.Content,
		Tags:        request.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toConfigPayload(*updated))
}

func (h *httpHandler) handleDelete(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	if err := h.configsService.Delete(c.Request.Context(), c.Param("id"), identity); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type addVersionRequestPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleAddVersion(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	var request addVersionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	versions, err := h.configsService.AddVersion(c.Request.Context(), c.Param("id"), identity, request.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": toVersionPayloads(versions)})
}

func (h *httpHandler) handleListVersions(c *gin.Context) {
	versions, err := h.configsService.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVersionPayloads(versions))
}

type addCommentRequestPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	var request addCommentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	comments, err := h.configsService.AddComment(c.Request.Context(), c.Param("id"), identity, request.Text)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": toCommentPayloads(comments)})
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	comments, err := h.configsService.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCommentPayloads(comments))
}

func (h *httpHandler) handleLike(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	likes, err := h.configsService.Like(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *httpHandler) handleUnlike(c *gin.Context) {
	identity, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	likes, err := h.configsService.Unlike(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
		return
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	c.Set(identityContextKey, identity)
	c.Next()
}

func (h *httpHandler) callerIdentity(c *gin.Context) (configs.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
		return configs.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
		return configs.Identity{}, false
	}
	return configs.Identity{ID: identity.ID, Username: identity.Username}, true
}

// writeServiceError maps each failure kind to a distinct status and stable
// code so callers can tell "fix your input" from "you don't own this" from
// "try again".
func (h *httpHandler) writeServiceError(c *gin.Context, err error) {
	code := ""
	var svcErr *configs.ServiceError
	if errors.As(err, &svcErr) {
		code = svcErr.Code()
	}

	switch {
	case errors.Is(err, configs.ErrInvalidConfigID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_config_id", "code": code})
	case errors.Is(err, configs.ErrValidation), errors.Is(err, configs.ErrInvalidUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "code": code})
	case errors.Is(err, configs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "code": code})
	case errors.Is(err, configs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "code": code})
	case errors.Is(err, configs.ErrStoreUnavailable):
		h.logger.Error("store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable", "code": code})
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "code": code})
	}
}

func parseIntParam(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return value
}
