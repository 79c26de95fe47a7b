package listen

import (
	"encoding/json"
	"fmt"

	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// AmqpListen consumes storage events from a fanout exchange. Events that
// fail processing are logged and dropped; the pipeline re-converges on the
// next full reindex.
type AmqpListen struct {
	client   *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *logrus.Entry
}

func (n *AmqpListen) Init(logger *logrus.Entry, config map[string]string) error {
	n.logger = logger
	n.exchange = config["exchange"]
	n.queue = config["queue"]

	client, err := amqp.Dial(config["amqp-url"])
	if err != nil {
		return fmt.Errorf("connecting to amqp: %w", err)
	}
	n.client = client

	ch, err := client.Channel()
	if err != nil {
		return fmt.Errorf("opening amqp channel: %w", err)
	}
	n.channel = ch

	err = ch.ExchangeDeclare(
		n.exchange,
		"fanout",
		false, // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring exchange %s: %w", n.exchange, err)
	}

	_, err = ch.QueueDeclare(
		n.queue,
		false, // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue %s: %w", n.queue, err)
	}

	return nil
}

func (n *AmqpListen) Subscribe(handler Handler) error {

	err := n.channel.QueueBind(
		n.queue,
		"", // routing key
		n.exchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("binding queue %s: %w", n.queue, err)
	}

	msgs, err := n.channel.Consume(
		n.queue,
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consuming queue %s: %w", n.queue, err)
	}

	n.logger.Infof("Subscribed to storage events on %s/%s", n.exchange, n.queue)

	for delivery := range msgs {
		var event model.StorageEvent
		if err := json.Unmarshal(delivery.Body, &event); err != nil {
			n.logger.Warnf("Dropping undecodable storage event: %v", err)
			continue
		}
		if err := handler(event); err != nil {
			n.logger.Errorf("Error handling storage event: %v", err)
		}
	}

	return nil
}

func (n *AmqpListen) Close() error {
	if err := n.channel.Close(); err != nil {
		return err
	}
	return n.client.Close()
}
