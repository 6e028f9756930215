package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/webreap/crawlkit/model"
)

type recordingProducer struct {
	payloads [][]byte
}

func (r *recordingProducer) Produce(data []byte) error {
	r.payloads = append(r.payloads, data)
	return nil
}

func TestResultPublisherPublishesJSON(t *testing.T) {
	rec := &recordingProducer{}
	pub := NewResultPublisher(rec, nil)

	result := model.CrawlResult{
		Request:     model.NewRequest("https://a.test/", 1, nil, model.DefaultPolicy(), model.PriorityNormal, nil),
		Status:      model.StatusSuccess,
		CompletedAt: time.Now(),
	}
	pub.Publish(result)

	if len(rec.payloads) != 1 {
		t.Fatalf("expected 1 published payload, got %d", len(rec.payloads))
	}
	var decoded model.CrawlResult
	if err := json.Unmarshal(rec.payloads[0], &decoded); err != nil {
		t.Fatalf("failed to unmarshal published payload: %v", err)
	}
	if decoded.Status != model.StatusSuccess {
		t.Errorf("expected status SUCCESS round-trip, got %q", decoded.Status)
	}
}

func TestResultPublisherPublishAllDrainsChannel(t *testing.T) {
	rec := &recordingProducer{}
	pub := NewResultPublisher(rec, nil)

	ch := make(chan model.CrawlResult, 3)
	for i := 0; i < 3; i++ {
		ch <- model.CrawlResult{
			Request: model.NewRequest("https://a.test/", 1, nil, model.DefaultPolicy(), model.PriorityNormal, nil),
			Status:  model.StatusSuccess,
		}
	}
	close(ch)

	pub.PublishAll(ch)

	if len(rec.payloads) != 3 {
		t.Fatalf("expected 3 published payloads, got %d", len(rec.payloads))
	}
}

func TestChannelQueueProducesAndConsumes(t *testing.T) {
	q := NewChannelQueue()
	events := make(chan []byte, 1)

	go func() {
		_ = q.Produce([]byte("hello"))
		q.Close()
	}()

	done := make(chan struct{})
	go func() {
		_ = q.Consume(events)
		close(done)
	}()

	select {
	case got := <-events:
		if string(got) != "hello" {
			t.Errorf("expected hello, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for consumed event")
	}
	<-done
}

func TestChannelQueueRoundTripsCrawlResultsViaResultPublisher(t *testing.T) {
	q := NewChannelQueue()
	pub := NewResultPublisher(q, nil)

	want := model.CrawlResult{
		Request: model.NewRequest("https://a.test/", 1, nil, model.DefaultPolicy(), model.PriorityNormal, nil),
		Status:  model.StatusSuccess,
	}

	go func() {
		pub.Publish(want)
		q.Close()
	}()

	results := make(chan model.CrawlResult, 1)
	done := make(chan struct{})
	go func() {
		_ = q.ConsumeResults(results, nil)
		close(done)
	}()

	select {
	case got := <-results:
		if got.Status != want.Status {
			t.Errorf("expected status %q, got %q", want.Status, got.Status)
		}
		if got.Request.URL != want.Request.URL {
			t.Errorf("expected url %q, got %q", want.Request.URL, got.Request.URL)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for round-tripped crawl result")
	}
	<-done
}
