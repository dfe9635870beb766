package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/browserfetch/fetcher"
	"github.com/use-agent/browserfetch/models"
)

// Screenshot returns a handler for POST /api/v1/screenshot.
//
// On success the response body is the raw PNG (image/png), not JSON;
// callers feed it straight to an image decoder. Errors stay JSON.
func Screenshot(f *fetcher.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScreenshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.FetchResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		png, err := f.Screenshot(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	}
}
