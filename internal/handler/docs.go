package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
)

func ServeOpenAPI(doc []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		if _, err := w.Write(doc); err != nil {
			slog.Error("failed to write openapi document", "error", err)
		}
	}
}

// ServeDocs serves the Swagger UI page. Its policy replaces the API-wide
// one: the UI assets come from unpkg and the bootstrap script is pinned by
// hash.
func ServeDocs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", docsCSP)
		if _, err := w.Write([]byte(swaggerHTML)); err != nil {
			slog.Error("failed to write docs page", "error", err)
		}
	}
}

const swaggerAssets = "https://unpkg.com"

const swaggerInit = `
    SwaggerUIBundle({
      url: "/docs/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  `

var docsCSP = "default-src 'self'; " +
	"script-src 'self' " + swaggerAssets + " '" + scriptHash(swaggerInit) + "'; " +
	"style-src 'self' " + swaggerAssets + "; " +
	"img-src 'self' data:; " +
	"frame-ancestors 'none'; object-src 'none'"

func scriptHash(script string) string {
	sum := sha256.Sum256([]byte(script))
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Payments Portal API Documentation</title>
  <link rel="stylesheet" href="` + swaggerAssets + `/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="` + swaggerAssets + `/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>` + swaggerInit + `</script>
</body>
</html>`
