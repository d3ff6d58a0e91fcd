package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"prompt-studio/shared/models"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown рендерит сообщение чата. Сырой HTML goldmark по умолчанию не пропускает.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// DefaultFuncMap - функции, доступные во всех шаблонах.
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": Markdown,
		"join":     strings.Join,
		"rowKey":   func(k models.RowKey) string { return k.String() },
		"isAI":     func(m models.ChatMessage) bool { return m.IsAI() },
		"flashClass": func(kind string) string {
			switch kind {
			case "error":
				return "flash flash-error"
			case "success":
				return "flash flash-success"
			default:
				return "flash flash-info"
			}
		},
	}
}
