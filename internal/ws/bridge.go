package ws

import (
	"go.uber.org/zap"

	"battery_sizer/internal/catalog"
)

// Bridge publishes catalog changes to the WebSocket hub. Register OnReload
// with catalog.Store.OnReload.
type Bridge struct {
	hub    *Hub
	logger *zap.Logger
}

func NewBridge(hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{hub: hub, logger: logger}
}

func (b *Bridge) OnReload(t *catalog.Tables) {
	n := b.hub.Publish(TypeCatalogLoaded, CatalogFromTables(t))
	b.logger.Debug("catalog published", zap.Int("clients", n))
}
