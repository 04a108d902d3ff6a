package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// ListApplicationCodes handles GET /api/application-codes
func (h *Handlers) ListApplicationCodes(c *gin.Context) {
	codes, err := h.references.ListApplicationCodes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, codes)
}

// CreateApplicationCode handles POST /api/application-codes
func (h *Handlers) CreateApplicationCode(c *gin.Context) {
	var code entity.ApplicationCode
	if err := c.ShouldBindJSON(&code); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.references.CreateApplicationCode(c.Request.Context(), &code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListRecipients handles GET /api/recipients
func (h *Handlers) ListRecipients(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	recipients, err := h.references.ListRecipients(c.Request.Context(), includeInactive)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, recipients)
}

// GetRecipient handles GET /api/recipients/:id
func (h *Handlers) GetRecipient(c *gin.Context) {
	recipient, err := h.references.GetRecipient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, recipient)
}

// CreateRecipient handles POST /api/recipients
func (h *Handlers) CreateRecipient(c *gin.Context) {
	var recipient entity.PaymentRecipient
	if err := c.ShouldBindJSON(&recipient); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.references.CreateRecipient(c.Request.Context(), &recipient)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// UpdateRecipient handles PUT /api/recipients/:id
func (h *Handlers) UpdateRecipient(c *gin.Context) {
	var recipient entity.PaymentRecipient
	if err := c.ShouldBindJSON(&recipient); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	recipient.ID = c.Param("id")

	updated, err := h.references.UpdateRecipient(c.Request.Context(), &recipient)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// DeactivateRecipient handles DELETE /api/recipients/:id
func (h *Handlers) DeactivateRecipient(c *gin.Context) {
	if err := h.references.DeactivateRecipient(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"id": c.Param("id"), "isActive": false})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.references.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, users)
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.references.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, user)
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var user entity.User
	if err := c.ShouldBindJSON(&user); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.references.CreateUser(c.Request.Context(), &user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// UpdateUser handles PUT /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	var user entity.User
	if err := c.ShouldBindJSON(&user); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	user.ID = c.Param("id")

	updated, err := h.references.UpdateUser(c.Request.Context(), &user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// DeactivateUser handles DELETE /api/users/:id
func (h *Handlers) DeactivateUser(c *gin.Context) {
	if err := h.references.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"id": c.Param("id"), "status": entity.UserStatusInactive})
}
