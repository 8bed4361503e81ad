package webserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/agentgpt/src/reports"
)

type downloadRequest struct {
	Format        string `json:"format"`
	IncludeLogs   *bool  `json:"include_logs"`
	IncludeTasks  *bool  `json:"include_tasks"`
	IncludeConfig *bool  `json:"include_config"`
}

func (r downloadRequest) options() reports.Options {
	opts := reports.AllSections()
	if r.IncludeLogs != nil {
		opts.IncludeLogs = *r.IncludeLogs
	}
	if r.IncludeTasks != nil {
		opts.IncludeTasks = *r.IncludeTasks
	}
	if r.IncludeConfig != nil {
		opts.IncludeConfig = *r.IncludeConfig
	}
	return opts
}

func (h *handlers) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if req.Format == "" {
		req.Format = string(reports.FormatJSON)
	}
	h.download(c, req.Format, req.options())
}

func (h *handlers) DownloadFormat(c *gin.Context) {
	h.download(c, c.Param("format"), reports.AllSections())
}

func (h *handlers) download(c *gin.Context, rawFormat string, opts reports.Options) {
	id := c.Param("id")
	if _, ok := h.agent(c); !ok {
		return
	}
	format, err := reports.ParseFormat(rawFormat)
	if err != nil {
		abortWithError(c, err)
		return
	}

	export, err := h.exporter.Export(id, format, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, export.MediaType, []byte(export.Content))
}
