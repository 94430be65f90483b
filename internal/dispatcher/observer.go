package dispatcher

import (
	"context"

	"github.com/blockedby/autorecruit/internal/models"
)

// Observer receives run progress. Implementations must not block for long:
// they run on the dispatcher goroutine between sends.
type Observer interface {
	RunStarted(ctx context.Context, run models.Run)
	EntryLogged(ctx context.Context, run models.Run, entry models.LogEntry)
	RunFinished(ctx context.Context, run models.Run)
}
