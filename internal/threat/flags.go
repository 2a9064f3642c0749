package threat

import (
	"context"

	"github.com/tacgrid/reactions/pkg/core"
)

// FlagProvider is an external status system. When present it is consulted for
// disqualifying statuses and owns the engaged flag.
type FlagProvider interface {
	HasFlag(p core.Piece, status string) bool
	SetFlag(ctx context.Context, p core.Piece, status string, active bool) error
}

var disqualifying = []string{core.StatusHidden, core.StatusDisengage, core.StatusIntangible}
