//go:build tools

// Package tools lists the development tools used on artisan-studio.
// They are installed with `go install` and are not tracked in go.mod.
package tools

// Air reloads cmd/artisan on template and Go changes:
//
//	go install github.com/air-verse/air@v1.63.0
//	air --build.cmd "go build -o ./tmp/artisan ./cmd/artisan" --build.bin ./tmp/artisan
//
// mockgen regenerates internal/mocks (pinned to the go.mod version of go.uber.org/mock):
//
//	go generate ./internal/mocks
//
// The dev backend stands in for the style-transfer API during local work:
//
//	DEVBACKEND_TOKEN_SECRET=dev go run ./cmd/artisan-devbackend
