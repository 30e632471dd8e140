package natsgath

import (
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by the gatherer.
type Publisher interface {
	Publish(subj string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// New creates a new NATS gatherer that streams events to the given subject.
func New(nc Publisher, subject string, logger *slog.Logger) *natsGatherer {
	if logger == nil {
		logger = slog.Default()
	}
	return &natsGatherer{
		nc:      nc,
		subject: subject,
		logger:  logger,
	}
}

// Connect dials the server and returns a gatherer with a closer for the
// connection. Pending messages are flushed on close.
func Connect(url, subject string, logger *slog.Logger) (*natsGatherer, func(), error) {
	nc, err := nats.Connect(url, nats.Name("itester"))
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return New(nc, subject, logger), closer, nil
}
