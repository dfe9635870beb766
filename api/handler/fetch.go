package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/browserfetch/extract"
	"github.com/use-agent/browserfetch/fetcher"
	"github.com/use-agent/browserfetch/models"
)

// Fetch returns a handler for POST /api/v1/fetch.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Fetcher.Fetch → rendered HTML + page identity (URL guard, HEAD
//     precheck, cache and navigation all live behind this call).
//  3. Extract body text per readability/format.
//  4. RenderText → metadata header + body + truncation marker.
//  5. Fill elapsed time, return 200.
func Fetch(f *fetcher.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.FetchResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Fetch ────────────────────────────────────────────────
		res, err := f.Fetch(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		page := res.Page

		// ── 3. Extract + 4. Render ──────────────────────────────────
		content, err := renderContent(page, &req)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 5. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.FetchResponse{
			URL:        req.URL,
			FinalURL:   page.URL,
			StatusCode: page.Status,
			Title:      page.Title,
			Content:    content,
			CacheHit:   res.CacheHit,
			ElapsedMs:  time.Since(start).Milliseconds(),
		})
	}
}

// renderContent extracts the page body in the requested format and wraps
// it with the metadata header and truncation marker.
//
// Readability is the extraction stage, format the conversion stage; they
// compose: readability+markdown converts only the extracted article.
func renderContent(page *models.PageResult, req *models.FetchRequest) (string, error) {
	var body string
	switch req.Format {
	case "markdown":
		source := page.HTML
		if *req.Readability {
			if fragment, ok := extract.Article(page.HTML, page.URL); ok {
				source = fragment
			}
		}
		md, err := extract.Markdown(source, page.URL)
		if err != nil {
			return "", models.NewFetchError(models.ErrCodeInternal,
				fmt.Sprintf("failed to convert %s to markdown", page.URL), err)
		}
		body = md
	default:
		if *req.Readability {
			body = extract.Readable(page.HTML, page.URL)
		} else {
			body = extract.FullText(page.HTML, page.URL)
		}
	}
	return page.RenderText(req.URL, body, *req.MaxChars), nil
}

// respondError maps a FetchError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var fetchErr *models.FetchError
	if !errors.As(err, &fetchErr) {
		fetchErr = models.NewFetchError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(fetchErr), models.FetchResponse{
		Error: fetchErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.FetchError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeInvalidScheme, models.ErrCodeNoHostname,
		models.ErrCodeUnresolvableHost, models.ErrCodePrivateAddress:
		return http.StatusForbidden // 403
	case models.ErrCodeNonHTMLContent:
		return http.StatusUnsupportedMediaType // 415
	case models.ErrCodeScreenshotTooLarge:
		return http.StatusRequestEntityTooLarge // 413
	case models.ErrCodeNavTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeDNSFailure, models.ErrCodeConnectionRefused,
		models.ErrCodeEmptyResponse, models.ErrCodeDownloadRejected,
		models.ErrCodeLoadFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
