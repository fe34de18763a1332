package mcp

import "github.com/1broseidon/sparknova/internal/search"

// SearchInput is the input for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"required,Text to search applications, files, commands and plugins for"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default: all)"`
}

// SearchOutput is the output for the search tool.
type SearchOutput struct {
	Query   string        `json:"query"`
	Results []search.Item `json:"results"`
}

// GetHistoryInput is the input for the get_history tool.
type GetHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of entries to return, most recent first (default: all)"`
}

// GetHistoryOutput is the output for the get_history tool.
type GetHistoryOutput struct {
	History []string `json:"history"`
}

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// ActionOutput reports the result of a tool that changes state.
type ActionOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
