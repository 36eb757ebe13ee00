// Package mocks provides gomock implementations of the ports interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().Login(gomock.Any(), gomock.Any()).Return(ports.LoginResult{Token: "tok"}, nil)
package mocks

// Generate mocks for the backend and session ports:
// AuthBackend (Login, Signup), StyleTransferBackend (StyleTransfer),
// SessionStore (Save, Get, Delete), SessionEvents (Publish, Subscribe).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/prakritea/artisan-studio/internal/ports AuthBackend,StyleTransferBackend,SessionStore,SessionEvents
