package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"equipapi/pkg/apperr"
	"equipapi/pkg/auth"
	"equipapi/pkg/equipment"
	"equipapi/pkg/logging"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	equipment *equipment.Service
	auth      *auth.Service
	log       logging.Logger
}

func setupRoutes(r *gin.Engine, h *handlers) {
	r.GET("/health", h.health)
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", requireAuth(), h.logout)
	r.GET("/user", requireAuth(), h.currentUser)

	eq := r.Group("/equipments")
	eq.GET("", h.listEquipment)
	eq.GET("/:id", h.showEquipment)
	authGroup := eq.Group("")
	authGroup.Use(requireAuth())
	authGroup.POST("", h.createEquipment)
	authGroup.PUT("/:id", h.updateEquipment)
	authGroup.DELETE("/:id", h.deleteEquipment)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) register(c *gin.Context) {
	var req auth.RegisterInput
	if !h.bind(c, &req) {
		return
	}
	user, token, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *handlers) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "input fields required"})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthFailed) {
			c.JSON(http.StatusForbidden, gin.H{"message": "login failed"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.String(http.StatusOK, token)
}

func (h *handlers) logout(c *gin.Context) {
	uid, _ := callerID(c)
	if err := h.auth.Logout(c.Request.Context(), uid); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *handlers) currentUser(c *gin.Context) {
	uid, _ := callerID(c)
	user, err := h.auth.User(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) listEquipment(c *gin.Context) {
	filter, err := equipment.ParseFilter(c.Query("quantity"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	_, authed := callerID(c)
	views, err := h.equipment.List(c.Request.Context(), filter, authed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *handlers) showEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.respondError(c, apperr.ErrNotFound)
		return
	}
	_, authed := callerID(c)
	view, err := h.equipment.Get(c.Request.Context(), id, authed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, []equipment.View{view})
}

func (h *handlers) createEquipment(c *gin.Context) {
	var in equipment.Input
	if !h.bind(c, &in) {
		return
	}
	_, authed := callerID(c)
	view, err := h.equipment.Create(c.Request.Context(), in, authed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *handlers) updateEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.respondError(c, apperr.ErrNotFound)
		return
	}
	var in equipment.Input
	if !h.bind(c, &in) {
		return
	}
	_, authed := callerID(c)
	view, err := h.equipment.Update(c.Request.Context(), id, in, authed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, []equipment.View{view})
}

func (h *handlers) deleteEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.respondError(c, apperr.ErrNotFound)
		return
	}
	_, authed := callerID(c)
	if err := h.equipment.Delete(c.Request.Context(), id, authed); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Deleted"})
}

// bind decodes a JSON body into dst. An empty body decodes to the zero value so
// that missing fields are reported by validation. A value of the wrong JSON type
// is reported against its field.
func (h *handlers) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		h.respondError(c, apperr.Invalid(ute.Field, fmt.Sprintf("The %s field must be a %s.", ute.Field, ute.Type)))
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "malformed JSON body"})
	return false
}

func equipmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors onto HTTP responses. Anything unknown is
// logged and reported as a 500.
func (h *handlers) respondError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": ve.Message, "errors": ve.Fields})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
	default:
		h.log.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}
