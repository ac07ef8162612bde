package server

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const indexFile = "index.html"

var contentTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentType returns the response type for a static file name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves files under the static root. Request paths are
// cleaned as rooted paths first, so ".." can never climb out of it.
func (s *Server) handleStatic(c *fiber.Ctx) error {
	reqPath := c.Path()

	var file, contentType string
	if reqPath == "/" || reqPath == "/"+indexFile {
		file = filepath.Join(s.config.StaticDir, indexFile)
		contentType = "text/html"
	} else {
		rel := strings.TrimPrefix(path.Clean("/"+reqPath), "/")
		file = filepath.Join(s.config.StaticDir, filepath.FromSlash(rel))

		info, err := os.Stat(file)
		if err != nil || !info.Mode().IsRegular() {
			return c.Status(fiber.StatusNotFound).SendString("File not found.")
		}
		contentType = ContentType(file)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		s.logger.Warn("failed to read static file", zap.String("file", file), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Error reading file: " + err.Error())
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(data)
}
