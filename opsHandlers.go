package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/models"
)

func listOutboxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := queryInt(c, "limit", 100)
		if err != nil {
			respondError(c, err)
			return
		}
		status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
		records, err := models.ListOutboxMessages(c.Request.Context(), status, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func outboxStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		referenceId, ok := paramId(c, "referenceId")
		if !ok {
			return
		}
		status, err := models.GetOutboxStatus(c.Request.Context(), models.EventType(c.Param("eventType")), referenceId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

type replayOutboxRequest struct {
	EventType   string `json:"eventType"`
	ReferenceId int    `json:"referenceId"`
}

// replayOutboxHandler requeues DEAD and FAILED rows; an empty body replays all of them.
func replayOutboxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req replayOutboxRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		if v := c.Query("referenceId"); v != "" && req.ReferenceId == 0 {
			req.ReferenceId, _ = strconv.Atoi(v)
		}
		if req.EventType == "" {
			req.EventType = c.Query("eventType")
		}
		replayed, err := models.ReplayOutbox(c.Request.Context(), models.EventType(req.EventType), req.ReferenceId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"replayed": replayed})
	}
}
