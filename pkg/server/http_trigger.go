package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kumarabd/log-archiver/pkg/export"
)

type triggerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Date    string `json:"date,omitempty"`
	Count   int    `json:"count"`
}

// triggerHandler runs an export for the optional ?date= parameter
func (s *HTTP) triggerHandler(c *gin.Context) {
	date := c.Query("date")

	res, err := s.exporter.Run(c.Request.Context(), export.TriggerManual, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, triggerResponse{
		Success: true,
		Message: fmt.Sprintf("Exported %d log records for %s", res.Count, res.Date),
		Date:    res.Date,
		Count:   res.Count,
	})
}

// pageHandler serves the informational page
func (s *HTTP) pageHandler(c *gin.Context) {
	body, err := s.page.Render(c.Request.Context())
	if err != nil {
		c.String(http.StatusBadGateway, "failed to load page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
