package feed

import (
	"context"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
)

const reconnectDelay = 3 * time.Second

// Follow keeps list current until ctx is cancelled. Each (re)connect starts
// with a full reload, which is also how dropped events get repaired.
// onInsert is called for every new order.
func (c *Client) Follow(ctx context.Context, list *List, onInsert func(models.Order)) error {
	for {
		orders, err := c.FetchOrders(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("Full reload failed")
		} else {
			list.Reload(orders)
			c.logger.WithField("count", len(orders)).Info("Order list reloaded")

			err = c.Subscribe(ctx, func(change models.OrderChange) {
				if list.Apply(change) && onInsert != nil {
					onInsert(*change.Order)
				}
			})
			if err != nil {
				c.logger.WithError(err).Warn("Live feed interrupted")
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
