package mq

import (
	"context"
	"fmt"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Топология событий аккаунтов.
const (
	ExchangeAccounts Exchange = "harvester.accounts"

	QueueQuarantined Queue = "accounts.quarantined"
	QueueRegistered  Queue = "accounts.registered"

	RoutingKeyQuarantined RoutingKey = "quarantined"
	RoutingKeyRegistered  RoutingKey = "registered"
)

// SetupTopology объявляет обменник, очереди и привязки.
// Идемпотентно: повторный вызов на существующей топологии безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	err := ch.ExchangeDeclare(
		string(ExchangeAccounts),
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeAccounts, err)
	}

	bindings := []struct {
		queue Queue
		key   RoutingKey
	}{
		{QueueQuarantined, RoutingKeyQuarantined},
		{QueueRegistered, RoutingKeyRegistered},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(string(b.queue), string(b.key), string(ExchangeAccounts), false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}
