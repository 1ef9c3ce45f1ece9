package report

import (
	"time"

	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

// Document is what the renderer receives. Model is passed through unchanged.
type Document struct {
	Title       string
	RunID       string
	GeneratedAt time.Time
	Model       *Model
	// Summary is an HTML fragment shown above the contracts.
	Summary optional.Value[string]
}
