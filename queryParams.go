package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
)

// queryRange reads ?date= or ?from=&to= as a half-open range in the server time zone.
func queryRange(c *gin.Context, defaultToday bool) (*time.Time, *time.Time, error) {
	return utils.ParseRange(c.Query("date"), c.Query("from"), c.Query("to"), config.Location(), defaultToday)
}

// queryDay reads ?date= as a single day, defaulting to today.
func queryDay(c *gin.Context) (time.Time, error) {
	value := c.Query("date")
	if value == "" {
		return time.Now().In(config.Location()), nil
	}
	day, _, err := utils.ParseDateOrTime(value, config.Location())
	return day, err
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, utils.NewValidationError("invalid %s", key)
	}
	return n, nil
}
