package listen

import (
	"encoding/json"
	"fmt"

	"github.com/doclens/doclens/pkg/model"
	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
)

// RedisListen consumes storage events from a redis pub/sub channel, for
// deployments where the store publishes notifications there instead of
// amqp.
type RedisListen struct {
	client *redis.Client
	queue  string
	logger *logrus.Entry
}

func (n *RedisListen) Init(logger *logrus.Entry, config map[string]string) error {
	n.logger = logger
	n.queue = config["queue"]
	n.client = redis.NewClient(&redis.Options{
		Addr:     config["addr"],
		Password: config["password"],
		DB:       0,
	})

	if _, err := n.client.Ping().Result(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	return nil
}

func (n *RedisListen) Subscribe(handler Handler) error {

	pubSub := n.client.Subscribe(n.queue)
	defer pubSub.Close()

	n.logger.Infof("Subscribed to storage events on redis channel %s", n.queue)

	for {
		msg, err := pubSub.ReceiveMessage()
		if err != nil {
			return fmt.Errorf("receiving redis message: %w", err)
		}

		var event model.StorageEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			n.logger.Warnf("Dropping undecodable storage event: %v", err)
			continue
		}
		if err := handler(event); err != nil {
			n.logger.Errorf("Error handling storage event: %v", err)
		}
	}
}

func (n *RedisListen) Close() error {
	return n.client.Close()
}
