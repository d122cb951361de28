package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"Lodestar/pkg/errors"
	"Lodestar/search"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	api.GET("/providers", s.providers)
	api.GET("/search", s.search)
	api.GET("/popular", s.popular)
	api.GET("/latest", s.latest)
	api.GET("/manga/:provider/:id/chapters", s.chapters)
	api.GET("/chapters/:provider/:id/pages", s.pages)
	api.GET("/smartsearch", s.smartSearch)
	api.GET("/metadata", s.metadata)
	api.GET("/healthreport", s.healthReport)
	api.POST("/providers/:id/reset", s.resetProvider)
	api.POST("/reset", s.resetAll)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": len(s.engine.Providers()),
	})
}

func (s *Server) providers(c *gin.Context) {
	list := s.engine.Providers()
	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, gin.H{
			"id":               p.ID(),
			"name":             p.Name(),
			"description":      p.Description(),
			"site_url":         p.SiteURL(),
			"available":        p.Available(),
			"supports_popular": p.SupportsPopular(),
			"supports_latest":  p.SupportsLatest(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "providers": out})
}

func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	page := parseInt(c.Query("page"), 1)

	items, err := s.engine.Search(c.Request.Context(), c.Query("provider"), query, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "page": page, "count": len(items), "items": items})
}

func (s *Server) popular(c *gin.Context) {
	page := parseInt(c.Query("page"), 1)
	items, err := s.engine.Popular(c.Request.Context(), c.Query("provider"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "count": len(items), "items": items})
}

func (s *Server) latest(c *gin.Context) {
	page := parseInt(c.Query("page"), 1)
	items, err := s.engine.Latest(c.Request.Context(), c.Query("provider"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "count": len(items), "items": items})
}

func (s *Server) chapters(c *gin.Context) {
	chapters, err := s.engine.Chapters(c.Request.Context(), c.Param("provider"), c.Param("id"), c.Query("lang"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(chapters), "chapters": chapters})
}

func (s *Server) pages(c *gin.Context) {
	pages, err := s.engine.Pages(c.Request.Context(), c.Param("provider"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pages), "pages": pages})
}

func (s *Server) smartSearch(c *gin.Context) {
	enrich, _ := strconv.ParseBool(c.DefaultQuery("enrich", "false"))
	req := search.Request{
		Query:  c.Query("q"),
		Limit:  parseInt(c.Query("limit"), 0),
		Enrich: enrich,
	}
	if subset := c.Query("providers"); subset != "" {
		req.Providers = splitList(subset)
	}

	results, err := s.engine.SmartSearch(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "count": len(results), "results": results})
}

func (s *Server) metadata(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter title"})
		return
	}

	record, err := s.engine.MangaDetails(c.Request.Context(), title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) healthReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.HealthReport())
}

func (s *Server) resetProvider(c *gin.Context) {
	id := c.Param("id")
	if err := s.engine.ResetProvider(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "provider": id})
}

func (s *Server) resetAll(c *gin.Context) {
	s.engine.ResetAll()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrBadRequest),
		errors.Is(err, errors.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNoProvider), errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrUnavailable), errors.Is(err, errors.ErrBlocked):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
