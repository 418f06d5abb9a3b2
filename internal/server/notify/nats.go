package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/nats-io/nats.go"
)

// SubjectPrefix is followed by the collection name.
const SubjectPrefix = "chirper.changes."

func subjectFor(collection string) string {
	return SubjectPrefix + collection
}

func collectionFromSubject(subject string) (string, bool) {
	c, ok := strings.CutPrefix(subject, SubjectPrefix)
	return c, ok && c != ""
}

// NATS fans change signals out to every hub connected to the same server,
// including the publishing one.
type NATS struct {
	nc     *nats.Conn
	logger logging.Logger
}

func NewNATS(url string, logger logging.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("chirper-hub"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(context.Background(), "nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info(context.Background(), "nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{nc: nc, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.nc.Publish(subjectFor(collection), nil)
}

func (n *NATS) Subscribe(fn func(collection string)) (func(), error) {
	sub, err := n.nc.Subscribe(SubjectPrefix+">", func(msg *nats.Msg) {
		if c, ok := collectionFromSubject(msg.Subject); ok {
			fn(c)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			n.logger.Warn(context.Background(), "nats unsubscribe failed", "error", err)
		}
	}, nil
}

func (n *NATS) Close() error {
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return err
	}
	return nil
}
