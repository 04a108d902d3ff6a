package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
)

type summarizeRequest struct {
	Text string `json:"text" binding:"required"`
}

// Summarize handles POST /api/enrichment/summarize
func (h *Handlers) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text is required")
		return
	}

	summary, err := h.enrichment.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"summary": summary})
}

// Suggest handles POST /api/enrichment/suggest with a multipart "file" field
func (h *Handlers) Suggest(c *gin.Context) {
	applicantID, ok := requireActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "file is too large"})
			return
		}
		respondBadRequest(c, "file is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.respondError(c, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	suggestion, err := h.enrichment.Suggest(c.Request.Context(), applicantID, port.Document{
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, suggestion)
}
