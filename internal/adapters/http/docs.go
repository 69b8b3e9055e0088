package http

import (
	"html/template"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Orbital Insight API {{.Version}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box}*,*::before,*::after{box-sizing:inherit}body{margin:0;background:#fafafa}
  .banner{padding:12px 20px;background:#0b3d5c;color:#fff;font-family:sans-serif}</style>
</head>
<body>
  <div class="banner">Orbital Insight API <strong>{{.Version}}</strong>, {{.Layers}} imaging layers per report.
    Progress streams are served from <code>POST /v1/reports/stream</code> as <code>text/event-stream</code>.</div>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`))

// OpenAPIPath is where the API description is read from, relative to the
// working directory of the server.
var OpenAPIPath = "api/openapi.yaml"

// SetupDocs registers Swagger UI at /docs and the API description at
// /docs/openapi.yaml. The page is rendered once, with the build version.
func SetupDocs(app *fiber.App, deps *Dependencies) {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	layers := 0
	if deps.Imagery != nil {
		layers = len(deps.Imagery.Layers())
	}

	var page strings.Builder
	if err := docsPage.Execute(&page, struct {
		Version string
		Layers  int
	}{version, layers}); err != nil {
		panic(err)
	}
	html := page.String()

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		data, err := os.ReadFile(OpenAPIPath)
		if err != nil {
			return errNotFound(c, "API description not found at "+OpenAPIPath)
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(data)
	})
}
