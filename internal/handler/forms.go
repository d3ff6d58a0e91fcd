package handler

import (
	"strings"
)

type createPromptForm struct {
	Name string `form:"name"`
}

type promptForm struct {
	Name   string `form:"name"`
	Prompt string `form:"prompt"`
	Tags   string `form:"tags"` // через запятую
}

func (f promptForm) tagList() []string {
	return splitTags(f.Tags)
}

type tagsForm struct {
	Tags string `form:"tags"`
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return []string{}
	}
	return strings.Split(tags, ",")
}

type exampleFieldForm struct {
	Field string `form:"field" binding:"required,oneof=input output is_active"`
	Value string `form:"value"`
	Kind  string `form:"kind" binding:"omitempty,oneof=text checkbox"`
}

type variableForm struct {
	Name  string `form:"name"`
	Value string `form:"value"`
}

type chatForm struct {
	Message        string `form:"message"`
	IntegrationUID string `form:"integration_uid"`
	ShowEmbedding  bool   `form:"show_embedding"`
}

type predictForm struct {
	Input          string `form:"input"`
	IntegrationUID string `form:"integration_uid"`
}

type confirmForm struct {
	Event string `form:"event" binding:"required"`
}

type projectForm struct {
	ProjectID int64 `form:"project_id" binding:"required,min=1"`
}
