// internal/view/helpers.go
//
// Template helpers available to every page:
//
//	{{ browser .Info }} {{ os .Info }} {{ device .Info }}
//	{{ if isBot .Info }}Robot!{{ end }}
//	{{ join .Errors " " }}
//	{{ template "row" (dict "k" 1 "k2" "v") }}
package view

import (
	"html/template"
	"strings"

	"github.com/yanizio/leadflow/internal/requestinfo"
)

// FuncMap returns the shared helpers.  UA helpers accept a nil
// *requestinfo.RequestInfo and then return zero values.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": dict,
		"join": strings.Join,
		"browser": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.Browser
		},
		"os": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.OS
		},
		"device": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.Device
		},
		"isBot": func(ri *requestinfo.RequestInfo) bool {
			return ri != nil && ri.UA.IsBot
		},
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
