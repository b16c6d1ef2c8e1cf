// Package web serves the embedded single-page UI.
package web

import (
	_ "embed"

	"github.com/gofiber/fiber/v3"
)

//go:embed index.html
var indexHTML []byte

// Register mounts the UI at the application root.
func Register(app *fiber.App) {
	app.Get("/", func(c fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})
}
