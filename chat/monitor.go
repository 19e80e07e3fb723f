package chat

import (
	"time"

	"github.com/poiesic/kbsearch/core"
)

// TurnKind tells a fresh reply from a regenerated one.
type TurnKind string

const (
	TurnSend       TurnKind = "send"
	TurnRegenerate TurnKind = "regenerate"
)

// Monitor observes chat turns.
type Monitor interface {
	TurnStarted(kind TurnKind, session string)
	// TurnFinished reports ok == false when the reply is an error message.
	TurnFinished(kind TurnKind, meta core.SearchMeta, ok bool, elapsed time.Duration)
}

type noopMonitor struct{}

func (noopMonitor) TurnStarted(TurnKind, string)                                {}
func (noopMonitor) TurnFinished(TurnKind, core.SearchMeta, bool, time.Duration) {}
