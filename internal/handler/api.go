package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Muelsyse030/XLetsChat/internal/repository"
	"github.com/Muelsyse030/XLetsChat/internal/service"
)

// APIHandler 暴露账号与好友关系的 HTTP 接口。
// 长连接之外的低频操作走 REST，注册登录拿到的令牌用于 WebSocket 登录。
type APIHandler struct {
	auth    *service.AuthService
	friends *service.FriendService
	uploads *service.UploadService
}

func NewAPIHandler(auth *service.AuthService, friends *service.FriendService, uploads *service.UploadService) *APIHandler {
	return &APIHandler{auth: auth, friends: friends, uploads: uploads}
}

// Register 挂载全部路由。
func (h *APIHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.POST("/friend/request", h.sendFriendRequest)
	api.POST("/friend/respond", h.respondFriendRequest)
	api.GET("/friend/pending", h.pendingFriendRequests)
	api.GET("/friend/list", h.listFriends)
	api.GET("/upload_url", h.uploadURL)
}

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

func (h *APIHandler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	uid, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *APIHandler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	u, token, err := h.auth.LoginByEmail(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthFail) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": u.ID, "username": u.Username, "token": token})
}

type friendRequestReq struct {
	FromUID int64  `json:"from_uid" binding:"required"`
	ToUID   int64  `json:"to_uid" binding:"required"`
	Reason  string `json:"reason"`
}

func (h *APIHandler) sendFriendRequest(c *gin.Context) {
	var req friendRequestReq
	if err := c.ShouldBindJSON(&req); err != nil || req.FromUID == req.ToUID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reqID, err := h.friends.SendRequest(c.Request.Context(), req.FromUID, req.ToUID, req.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"req_id": reqID})
}

type friendRespondReq struct {
	UID    int64 `json:"uid" binding:"required"`
	ReqID  int64 `json:"req_id" binding:"required"`
	Accept bool  `json:"accept"`
}

func (h *APIHandler) respondFriendRequest(c *gin.Context) {
	var req friendRespondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	err := h.friends.Respond(c.Request.Context(), req.UID, req.ReqID, req.Accept)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrNotRecipient):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the request recipient"})
	case errors.Is(err, repository.ErrRequestResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "respond failed"})
	}
}

func uidQuery(c *gin.Context) (int64, bool) {
	uid, err := strconv.ParseInt(c.Query("uid"), 10, 64)
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return 0, false
	}
	return uid, true
}

func (h *APIHandler) pendingFriendRequests(c *gin.Context) {
	uid, ok := uidQuery(c)
	if !ok {
		return
	}
	pending, err := h.friends.Pending(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": pending})
}

func (h *APIHandler) listFriends(c *gin.Context) {
	uid, ok := uidQuery(c)
	if !ok {
		return
	}
	friends, err := h.friends.ListFriends(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *APIHandler) uploadURL(c *gin.Context) {
	fid, url, err := h.uploads.AssignUploadURL(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fid": fid, "upload_url": url})
}
