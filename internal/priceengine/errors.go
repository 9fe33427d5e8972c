package priceengine

import "github.com/pkg/errors"

// ErrAccountUnresolvable is wrapped around any AccountCache resolution
// failure surfaced from OnBlock; the engine treats it as fatal, since
// crediting or debiting an address it cannot identify would silently
// corrupt the supply/reward invariants.
var ErrAccountUnresolvable = errors.New("priceengine: account could not be resolved")
