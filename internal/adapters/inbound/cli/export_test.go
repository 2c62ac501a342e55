package cli

import (
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
)

// SetRendererForTest replaces the browser renderer and returns a restore func.
func SetRendererForTest(r domain.Renderer) func() {
	prev := newRenderer
	newRenderer = func(domain.RenderConfig, *zap.Logger) domain.Renderer { return r }
	return func() { newRenderer = prev }
}
