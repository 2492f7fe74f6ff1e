package kafka

import (
	"context"
	"errors"
	"strconv"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a [kgo.Client] producing to the topic. Extra
// options, e.g. [kgo.DialTLSConfig], are appended to the defaults.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, extra ...kgo.Opt,
) ProducerOpt {
	return func(opts *producerOpts) error {
		if len(seedBrokers) == 0 {
			return errors.New("no seed brokers")
		}

		kgoOpts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}, extra...)

		cl, err := kgo.NewClient(kgoOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func productEventToSchemaV1(evt domain.ProductEvent) (s schema.ProductEventV1) {
	p := evt.Product
	s.EventType = string(evt.Type)
	s.ProductID = p.ID
	s.Name = p.Name
	s.Category = p.Category
	if evt.Type != domain.EventDeleted {
		s.Price = p.Price.StringFixed(domain.PriceScale)
	}
	if p.HasImage() {
		image := p.Image
		s.Image = &image
	}
	s.OccurredAt = evt.OccurredAt
	return s
}

func recordKey(id int64) []byte {
	return strconv.AppendInt(nil, id, 10)
}
