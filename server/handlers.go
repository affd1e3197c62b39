package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mealmuse/feedfan/feed"
	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/publisher"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
)

// Handler carries the explicitly constructed dependencies for every route.
// Write access to the graph, activity and feed stores stays behind these
// handlers, end clients never touch the stores directly.
type Handler struct {
	Users      store.UserStore
	Graph      store.FollowGraphStore
	Dispatcher *publisher.FanoutDispatcher
	FeedReader *feed.Reader
}

func NewHandler(users store.UserStore, graph store.FollowGraphStore, dispatcher *publisher.FanoutDispatcher, reader *feed.Reader) *Handler {
	return &Handler{
		Users:      users,
		Graph:      graph,
		Dispatcher: dispatcher,
		FeedReader: reader,
	}
}

// RegisterRoutes binds all routes on the given router. The auth middleware
// has already populated the "sub" header with the caller's user id.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/users", h.CreateUser)
	router.POST("/follow/:targetId", h.Follow)
	router.DELETE("/follow/:targetId", h.Unfollow)
	router.POST("/activities", h.PublishActivity)
	router.GET("/feed", h.GetFeed)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

// caller returns the authenticated user id, or aborts with 401.
func caller(c *gin.Context) (string, bool) {
	sub := c.Request.Header.Get("sub")
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": utils.ErrorTokenAuthFail,
			"msg":  "missing authenticated user",
		})
		return "", false
	}
	return sub, true
}

type createUserInput struct {
	Id        string `json:"id"`
	Name      string `json:"name" binding:"required"`
	AvatarUrl string `json:"avatar_url"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var input createUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
		return
	}
	if input.Id == "" {
		input.Id = uuid.New().String()
	}

	user := &model.User{Id: input.Id, Name: input.Name, AvatarUrl: input.AvatarUrl}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to create user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.Id})
}

// Follow is idempotent: following an already-followed target succeeds.
// The actor is always the authenticated caller, never taken from the body.
func (h *Handler) Follow(c *gin.Context) {
	actorId, ok := caller(c)
	if !ok {
		return
	}
	h.mutateGraph(c, actorId, c.Param("targetId"), h.Graph.Follow)
}

func (h *Handler) Unfollow(c *gin.Context) {
	actorId, ok := caller(c)
	if !ok {
		return
	}
	h.mutateGraph(c, actorId, c.Param("targetId"), h.Graph.Unfollow)
}

func (h *Handler) mutateGraph(c *gin.Context, actorId, targetId string, mutate func(ctx context.Context, actorId, targetId string) error) {
	err := mutate(c.Request.Context(), actorId, targetId)
	if errors.Is(err, store.ErrSelfFollow) {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorSelfFollow, "msg": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to update follow graph"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PublishActivity is the internal endpoint invoked by action-producing
// operations after their primary write. It answers as soon as the canonical
// activity is durable, fan-out continues in the background.
func (h *Handler) PublishActivity(c *gin.Context) {
	authorId, ok := caller(c)
	if !ok {
		return
	}

	var input publisher.PublishActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
		return
	}
	input.AuthorId = authorId

	if input.AuthorName == "" {
		user, err := h.Users.GetUser(c.Request.Context(), authorId)
		if errors.Is(err, store.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": "unknown author"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to resolve author"})
			return
		}
		input.AuthorName = user.Name
	}

	activityId, err := h.Dispatcher.PublishAsync(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity_id": activityId})
}

// GetFeed serves the caller's own feed partition, and only that partition.
// An empty feed renders an empty-state, never an error.
func (h *Handler) GetFeed(c *gin.Context) {
	userId, ok := caller(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, err := h.FeedReader.GetFeed(c.Request.Context(), userId, limit, c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to read feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":     page.Entries,
		"next_cursor": page.NextCursor,
		"empty":       len(page.Entries) == 0,
	})
}
