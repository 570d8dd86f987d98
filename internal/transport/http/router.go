package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tradelens/internal/ai/council"
	"tradelens/internal/ai/provider"
	"tradelens/internal/journal"

	"github.com/gin-gonic/gin"
)

// Router exposes the analysis and journal endpoints.
type Router struct {
	svc AnalysisService
}

func NewRouter(svc AnalysisService) *Router {
	return &Router{svc: svc}
}

// Register mounts the API routes on the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/analyze", r.handleAnalyze)
	group.GET("/journal", r.handleJournalList)
	group.GET("/journal/:id", r.handleJournalGet)
}

func (r *Router) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Symbol) == "" && len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either symbol or images is required"})
		return
	}
	for _, img := range req.Images {
		if strings.TrimSpace(img.MimeType) == "" || strings.TrimSpace(img.Data) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "each image needs mime_type and data"})
			return
		}
	}

	entry, err := r.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var perr *provider.Error
		switch {
		case errors.Is(err, council.ErrAllProvidersFailed):
			// fall through with 502
		case errors.As(err, &perr) && errors.Is(perr.Err, provider.ErrMissingCredential):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (r *Router) handleJournalList(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	entries, total, err := r.svc.ListJournal(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, journalPage{Entries: entries, Total: total, Limit: limit, Offset: offset})
}

func (r *Router) handleJournalGet(c *gin.Context) {
	entry, err := r.svc.GetJournal(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
