package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/middleware"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/relay"
)

type AccountHandler struct {
	Relay *relay.Relay
	Loop  Runner
}

type profileResponse struct {
	Number string `json:"number"`
	model.Profile
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

func (h *AccountHandler) Profile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	var (
		u   model.User
		err error
	)
	if !onLoop(c, h.Loop, func() { u, err = h.Relay.Profile(userID) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, profileResponse{
		Number:    u.Number,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}
