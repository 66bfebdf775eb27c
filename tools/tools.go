//go:build tools

// Package tools pins the versions of the development binaries: live reload,
// OpenAPI generation, dependency injection and mock generation.
package tools

import (
	_ "github.com/air-verse/air"
	_ "github.com/google/wire/cmd/wire"
	_ "github.com/swaggo/swag/cmd/swag"
	_ "go.uber.org/mock/mockgen"
)
