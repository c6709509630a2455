//go:build swagger

// Package docs carries the general API information read by swag when it
// generates the OpenAPI document. It is not compiled into any binary.
package docs

// @title map-my-mind API
// @version 1.0
// @description Mind-map generation through an LLM collaborator, and a library of saved maps.

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

// @tag.name collaborator
// @tag.description LLM-backed generation, suggestions and analysis
// @tag.name maps
// @tag.description Saved maps in the mindmaps: namespace
