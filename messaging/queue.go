// Package messaging decouples the crawl Engine's result stream from
// whatever downstream component consumes it — a log sink, a RabbitMQ or
// Kafka publisher, or the in-process ChannelQueue below. The Engine and
// BatchCrawl already expose a Go channel of CrawlResult directly; this
// package exists for callers that want to republish results as
// serialized bytes onto an external transport instead of reading the
// channel themselves (see ResultPublisher in result.go).
package messaging

// Producer defines a producer behavior, exposes a single `Produce` method
// meant to enqueue a serialized CrawlResult payload
type Producer interface {
	Produce([]byte) error
}

// Consumer defines a consumer behavior, exposes a single `Consume` method
// meant to connect to a queue blocking while consuming incoming
// serialized CrawlResult payloads, forwarding them into a channel
type Consumer interface {
	Consume(chan<- []byte) error
}

// ProducerConsumer defines the behavior of a simple message queue, it's
// expected to provide a `Produce` function a `Consume` one
type ProducerConsumer interface {
	Producer
	Consumer
}

// ProducerConsumerCloser defines the behavior of a simple mssage queue
// that requires some kidn of external connection to be managed
type ProducerConsumerCloser interface {
	ProducerConsumer
	Close()
}
