package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// page reads the max_id and count query parameters. Absent values are zero.
func page(c *gin.Context) (maxID int64, count int, ok bool) {
	if v := c.Query("max_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			badRequest(c, "max_id must be a positive integer")
			return 0, 0, false
		}
		maxID = id
	}
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "count must be a positive integer")
			return 0, 0, false
		}
		count = n
	}
	return maxID, count, true
}
