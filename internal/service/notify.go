package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/search"
	"github.com/Skotchmaster/boutique/pkg/events"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

const sideEffectTimeout = 5 * time.Second

// notifier runs the after-commit side effects. They never fail the
// operation that triggered them; failures are logged.
type notifier struct {
	Events events.Publisher
	Index  search.Index
}

func (n notifier) publish(ctx context.Context, topic, key, eventType string, fields map[string]any) {
	if n.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := n.Events.PublishEvent(ctx, topic, key, events.New(eventType, fields)); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "type", eventType, "error", err)
	}
}

func (n notifier) indexProduct(ctx context.Context, p models.Product) {
	if n.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := n.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}

func (n notifier) unindexProduct(ctx context.Context, id uint) {
	if n.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := n.Index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
	}
}

func idKey(id uint) string {
	return fmt.Sprint(id)
}
