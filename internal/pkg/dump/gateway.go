package dump

import (
	"context"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// Gateway is the dump-file-backed device gateway: it serves whatever the
// on-site fetch agent last uploaded for each device. The vendor SDK
// transport stays outside this repository.
type Gateway struct {
	store *Store
}

func NewGateway(store *Store) *Gateway {
	return &Gateway{store: store}
}

// Fetch implements device.Gateway.
func (g *Gateway) Fetch(ctx context.Context, d device.Device) ([]punch.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.store.Read(d.ID, d.IP)
}
