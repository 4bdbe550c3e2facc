package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/pos-billing/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ListNotificationsRequest filters the feed.
type ListNotificationsRequest struct {
	Kind  Kind `json:"kind,omitempty"`
	Limit int  `json:"limit,omitempty"`
}

// ListNotificationsResponse returns feed entries newest first.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

// NotificationModule turns billing events into an admin feed.
// It subscribes to domain events using the EventConsumerModule interface.
type NotificationModule struct {
	feed *Feed
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)

func NewModule(capacity int) *NotificationModule {
	return &NotificationModule{
		feed: NewFeed(capacity),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.InvoiceConfirmedV1, m.handleInvoiceConfirmed, m); err != nil {
		return fmt.Errorf("failed to register InvoiceConfirmed consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.InvoiceCancelledV1, m.handleInvoiceCancelled, m); err != nil {
		return fmt.Errorf("failed to register InvoiceCancelled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.StockDepletedV1, m.handleStockDepleted, m); err != nil {
		return fmt.Errorf("failed to register StockDepleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: InvoiceConfirmed, InvoiceCancelled, StockDepleted")
	return nil
}

func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-notifications",
		json.Unmarshal,
		json.Marshal,
		m.handleListNotifications,
	); err != nil {
		return fmt.Errorf("failed to register list-notifications service: %w", err)
	}

	log.Printf("[notification] Registered services: list-notifications")
	return nil
}

func (m *NotificationModule) handleInvoiceConfirmed(_ context.Context, event events.InvoiceConfirmedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Sale completed: %s by %s", event.InvoiceNumber, event.CashierID)
	cashier := event.CashierName
	if cashier == "" {
		cashier = event.CashierID
	}
	m.feed.Add(KindSale, event.InvoiceNumber,
		fmt.Sprintf("Sale %s: %d items for %.2f by %s", event.InvoiceNumber, event.TotalCount, event.TotalAmount, cashier),
		event.ConfirmedAt)
	return nil
}

func (m *NotificationModule) handleInvoiceCancelled(_ context.Context, event events.InvoiceCancelledEvent, _ *mono.Msg) error {
	log.Printf("[notification] Sale cancelled: %s", event.InvoiceNumber)
	m.feed.Add(KindCancelled, event.InvoiceNumber,
		fmt.Sprintf("Invoice %s was cancelled", event.InvoiceNumber),
		event.CancelledAt)
	return nil
}

func (m *NotificationModule) handleStockDepleted(_ context.Context, event events.StockDepletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Out of stock: %s (%s)", event.Name, event.ProductID)
	m.feed.Add(KindOutOfStock, event.ProductID,
		fmt.Sprintf("%s is out of stock after %s", event.Name, event.InvoiceNumber),
		event.DepletedAt)
	return nil
}

func (m *NotificationModule) handleListNotifications(_ context.Context, req ListNotificationsRequest, _ *mono.Msg) (ListNotificationsResponse, error) {
	return ListNotificationsResponse{Notifications: m.feed.List(req.Kind, req.Limit)}, nil
}

// Feed exposes the underlying feed.
func (m *NotificationModule) Feed() *Feed {
	return m.feed
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for billing events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}
