package config

import (
	"testing"

	"github.com/webreap/crawlkit/model"
)

func TestExpandRequestsUsesBaseWhenSourceUnset(t *testing.T) {
	cfg := CrawlerConfig{
		Name:       "demo",
		BasePolicy: model.DefaultPolicy(),
		Sources: []Source{
			{Name: "feed-a", SeedURLs: []string{"https://a.test/", "https://a.test/b"}, MaxDepth: 3},
		},
	}

	reqs := cfg.ExpandRequests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	for _, r := range reqs {
		if r.Source() != "feed-a" {
			t.Errorf("expected source feed-a, got %q", r.Source())
		}
		if r.MaxDepth != 3 {
			t.Errorf("expected max depth 3, got %d", r.MaxDepth)
		}
		if r.Policy.UserAgent != model.DefaultPolicy().UserAgent {
			t.Errorf("expected base policy to apply, got %+v", r.Policy)
		}
		if r.Priority != model.PriorityNormal {
			t.Errorf("expected default priority NORMAL, got %v", r.Priority)
		}
	}
}

func TestExpandRequestsSourceOverridesPolicy(t *testing.T) {
	override := model.DefaultPolicy()
	override.UserAgent = "special-bot/1.0"

	cfg := CrawlerConfig{
		BasePolicy: model.DefaultPolicy(),
		Sources: []Source{
			{Name: "feed-b", SeedURLs: []string{"https://b.test/"}, Policy: &override, Priority: model.PriorityHigh},
		},
	}

	reqs := cfg.ExpandRequests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Policy.UserAgent != "special-bot/1.0" {
		t.Errorf("expected source policy override, got %q", reqs[0].Policy.UserAgent)
	}
	if reqs[0].Priority != model.PriorityHigh {
		t.Errorf("expected HIGH priority, got %v", reqs[0].Priority)
	}
}

func TestNewFromEnvDefaults(t *testing.T) {
	cfg := NewFromEnv()
	if cfg.Name != "crawlkit" {
		t.Errorf("expected default name crawlkit, got %q", cfg.Name)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("expected default concurrency 8, got %d", cfg.MaxConcurrency)
	}
	if !cfg.BasePolicy.RespectRobotsTxt {
		t.Errorf("expected RespectRobotsTxt default true")
	}
}
