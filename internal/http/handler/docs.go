package handler

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/swaggo/swag"
)

var registerDocOnce sync.Once

// OpenAPISpec serves the embedded OpenAPI document.
func OpenAPISpec(doc []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.Send(doc)
	}
}

// SwaggerUI serves the Swagger UI bundle under /swagger/*. The document is
// registered with swag once per process; the UI loads it from doc.json.
func SwaggerUI(doc []byte) fiber.Handler {
	registerDocOnce.Do(func() {
		swag.Register(swag.Name, &swag.Spec{
			Version:          "1.0.0",
			Title:            "SIKAP Upload API",
			InfoInstanceName: swag.Name,
			SwaggerTemplate:  string(doc),
		})
	})
	return swagger.New(swagger.Config{
		URL:          "doc.json",
		InstanceName: swag.Name,
		Title:        "SIKAP Upload API",
	})
}
