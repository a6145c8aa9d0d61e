package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed web/assets
var webAssets embed.FS

// mountStatic serves the embedded stylesheet and the fallback pages.
func (s *Server) mountStatic() error {
	assets, err := fs.Sub(webAssets, "web/assets")
	if err != nil {
		return fmt.Errorf("mount assets: %w", err)
	}
	s.engine.StaticFS("/assets", http.FS(assets))

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		s.notFound(c)
	})
	return nil
}

// notFound renders the 404 page.
func (s *Server) notFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "notfound.html", s.page(c, "Not found", nil))
}
