package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.EventsProducer = (*EventsProducer)(nil)

// EventsProducer publishes product lifecycle events keyed by product id, so
// the events of one product keep their order within a partition.
type EventsProducer struct {
	cl      ProducerClient
	encoder Encoder
}

func NewEventsProducer(opts ...ProducerOpt) (EventsProducer, error) {
	const op = "NewEventsProducer"

	if len(opts) != 2 {
		return EventsProducer{}, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			if options.cl != nil {
				options.cl.Close()
			}
			return EventsProducer{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return EventsProducer{options.cl, options.encoder}, nil
}

func (p EventsProducer) Close() {
	const op = "EventsProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p EventsProducer) ProduceEvent(
	ctx context.Context, evt domain.ProductEvent,
) error {
	const op = "EventsProducer.ProduceEvent"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.produce(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p EventsProducer) createRecord(
	evt domain.ProductEvent,
) (*kgo.Record, error) {
	const op = "EventsProducer.createRecord"

	v, err := p.encoder.Encode(productEventToSchemaV1(evt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &kgo.Record{Key: recordKey(evt.Product.ID), Value: v}, nil
}

func (p EventsProducer) produce(ctx context.Context, r *kgo.Record) error {
	const op = "EventsProducer.produce"
	res := p.cl.ProduceSync(ctx, r)
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var _ port.EventsProducer = NoopProducer{}

// NoopProducer drops events. It is used when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) ProduceEvent(context.Context, domain.ProductEvent) error {
	return nil
}

func (NoopProducer) Close() {}
