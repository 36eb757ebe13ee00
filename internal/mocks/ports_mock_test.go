package mocks

import (
	"github.com/prakritea/artisan-studio/internal/ports"
)

var (
	_ ports.AuthBackend          = (*MockAuthBackend)(nil)
	_ ports.StyleTransferBackend = (*MockStyleTransferBackend)(nil)
	_ ports.SessionStore         = (*MockSessionStore)(nil)
	_ ports.SessionEvents        = (*MockSessionEvents)(nil)
)
