package messaging

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webreap/crawlkit/model"
)

// ResultPublisher republishes CrawlResults onto a Producer as JSON
// payloads, in the teacher's ParsedResult/enqueueResults style: the
// Engine's result channel is the canonical consumer surface, but a
// caller wiring in an external queue (RabbitMQ, Kafka, the in-process
// ChannelQueue) uses this to bridge the two.
type ResultPublisher struct {
	producer Producer
	logger   *zerolog.Logger
}

// NewResultPublisher builds a ResultPublisher writing onto producer.
func NewResultPublisher(producer Producer, logger *zerolog.Logger) *ResultPublisher {
	if logger == nil {
		l := log.Logger.With().Str("component", "messaging").Logger()
		logger = &l
	}
	return &ResultPublisher{producer: producer, logger: logger}
}

// Publish marshals result and forwards it to the underlying Producer,
// logging (not returning) a marshal or produce failure — mirroring the
// teacher's enqueueResults, which treats queue failures as non-fatal.
func (p *ResultPublisher) Publish(result model.CrawlResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", result.Request.URL).Msg("failed to marshal crawl result")
		return
	}
	if err := p.producer.Produce(payload); err != nil {
		p.logger.Warn().Err(err).Str("url", result.Request.URL).Msg("unable to communicate with message queue")
	}
}

// PublishAll drains results, publishing each one, until the channel is
// closed. Intended to run in its own goroutine alongside an Engine or
// BatchCrawl's result stream.
func (p *ResultPublisher) PublishAll(results <-chan model.CrawlResult) {
	for result := range results {
		p.Publish(result)
	}
}

// ChannelQueue is an in-process ProducerConsumerCloser backed by a
// channel of serialized CrawlResult payloads — the transport
// ResultPublisher uses in tests and single-process demos when there is
// no real broker to wire in.
type ChannelQueue struct {
	bus chan []byte
}

// NewChannelQueue creates a new ChannelQueue.
func NewChannelQueue() ChannelQueue {
	return ChannelQueue{make(chan []byte)}
}

// Produce sends a payload of bytes into the channel.
func (c ChannelQueue) Produce(data []byte) error {
	c.bus <- data
	return nil
}

// Consume subscribes to the underlying channel, forwarding all incoming
// payloads to a push-only channel.
func (c ChannelQueue) Consume(events chan<- []byte) error {
	for event := range c.bus {
		events <- event
	}
	return nil
}

// Close closes the underlying channel.
func (c ChannelQueue) Close() {
	close(c.bus)
}

// ConsumeResults decodes each payload off the queue back into a
// model.CrawlResult and forwards it to results, until the queue is
// closed. Pairs with ResultPublisher.Publish on the producing side to
// give an in-process CrawlResult pipe with no real broker in between.
func (c ChannelQueue) ConsumeResults(results chan<- model.CrawlResult, logger *zerolog.Logger) error {
	if logger == nil {
		l := log.Logger.With().Str("component", "messaging").Logger()
		logger = &l
	}
	events := make(chan []byte)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Consume(events) }()

	for event := range events {
		var result model.CrawlResult
		if err := json.Unmarshal(event, &result); err != nil {
			logger.Warn().Err(err).Msg("failed to unmarshal crawl result from queue")
			continue
		}
		results <- result
	}
	return <-errCh
}
