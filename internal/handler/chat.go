package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/middleware"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/relay"
)

type ChatHandler struct {
	Relay *relay.Relay
	Loop  Runner
}

// Messages returns the caller's conversation with :number, oldest first.
func (h *ChatHandler) Messages(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}
	with := c.Param("number")

	var (
		messages []model.Message
		err      error
	)
	if !onLoop(c, h.Loop, func() { messages, err = h.Relay.History(userID, with) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not registered"})
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"with": with, "messages": messages})
}
