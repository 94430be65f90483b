package api

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
)

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>{{ .Title }} - API</title>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<style>body { margin: 0; }</style>
</head>
<body>
	<script id="api-reference" data-url="{{ .SpecURL }}" data-configuration="{{ .Configuration }}"></script>
	<script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`))

// ScalarHandler serves the Scalar API reference for the OpenAPI document at specURL.
func ScalarHandler(specURL, title, description string) http.Handler {
	config := map[string]interface{}{
		"theme":                 "default",
		"layout":                "classic",
		"hideDownloadButton":    false,
		"hideTestRequestButton": false,
		"metaData": map[string]string{
			"title":       title,
			"description": description,
		},
	}

	var buf bytes.Buffer
	configJSON, err := json.Marshal(config)
	if err == nil {
		err = docsPage.Execute(&buf, struct {
			Title         string
			SpecURL       string
			Configuration string
		}{title, specURL, string(configJSON)})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
