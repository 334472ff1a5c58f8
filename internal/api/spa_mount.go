package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded UI assets.
//
// The build process copies the admin UI's production build output into
// internal/api/dist/browser/ before compiling Go.
//
// Example layout after build:
// internal/api/dist/browser/
//
//	index.html
//	assets/
//	  ...
//	*.js, *.css
//
//go:embed dist/browser/*
var embeddedUI embed.FS

func getEmbedFs() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedUI, "dist/browser")
	if err != nil {
		panic("failed to get embedded UI filesystem: " + err.Error())
	}
	return fs
}

// MountSPA serves whatever is embedded from internal/api/dist/browser/.
// Until a built admin UI is copied there, that is the checked-in
// placeholder index.html; the directory must not be empty, or the
// go:embed pattern fails to compile.
func MountSPA(r *gin.Engine, logger *slog.Logger) {
	distFS := getEmbedFs()
	r.Use(static.Serve("/", distFS))

	r.NoRoute(func(c *gin.Context) {
		// Only serve index.html for non-API routes; unknown API routes
		// stay a 404 instead of falling through to the SPA shell.
		if strings.HasPrefix(c.Request.RequestURI, "/api") {
			c.Status(http.StatusNotFound)
			return
		}

		index, err := distFS.Open("index.html")
		if err != nil {
			logger.Error("failed to open index.html", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		defer index.Close()
		stat, _ := index.Stat()
		http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
	})
}
