package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/relay"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

type UserHandler struct {
	Relay *relay.Relay
	Loop  Runner
}

// Get looks a number up in the directory. Only public fields are returned.
func (h *UserHandler) Get(c *gin.Context) {
	number := c.Param("number")
	if !store.ValidIdentifier(number) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Number must be exactly 4 digits"})
		return
	}

	var (
		u   model.PublicUser
		err error
	)
	if !onLoop(c, h.Loop, func() { u, err = h.Relay.LookupUser(number) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
