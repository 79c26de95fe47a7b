package listen

import (
	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
)

// Handler reacts to one decoded storage event.
type Handler func(event model.StorageEvent) error

type Interface interface {
	Init(logger *logrus.Entry, config map[string]string) error
	Subscribe(handler Handler) error
	Close() error
}
