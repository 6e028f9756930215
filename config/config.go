package config

import (
	"github.com/webreap/crawlkit/extract"
	"github.com/webreap/crawlkit/model"
)

// Source is one seed source of a CrawlerConfig: a set of seed URLs to
// crawl with their own depth/priority/policy/rules, layered over the
// config's base policy and rules (spec.md §6).
type Source struct {
	Name     string
	SeedURLs []string
	MaxDepth int
	Priority model.Priority
	Policy   *model.CrawlPolicy // nil means "use the base policy"
	Rules    []extract.Rule     // nil/empty means "use the base rules"
}

// CrawlerConfig is spec.md §6's flat, caller-supplied configuration:
// name, max concurrency, a list of sources, and a base policy/rules
// applied where a Source does not override them.
type CrawlerConfig struct {
	Name           string
	MaxConcurrency int
	Sources        []Source
	BasePolicy     model.CrawlPolicy
	BaseRules      []extract.Rule
}

// NewFromEnv builds a CrawlerConfig skeleton (name, concurrency, base
// policy) from the environment, in the teacher's NewFromEnv style,
// leaving Sources for the caller to append.
func NewFromEnv() CrawlerConfig {
	policy := model.DefaultPolicy()
	policy.RespectRobotsTxt = GetEnvAsBool("RESPECT_ROBOTS_TXT", policy.RespectRobotsTxt)
	policy.DelayMs = int64(GetEnvAsInt("POLITENESS_DELAY_MS", int(policy.DelayMs)))
	policy.MaxRetries = GetEnvAsInt("MAX_RETRIES", policy.MaxRetries)
	policy.TimeoutMs = int64(GetEnvAsInt("FETCH_TIMEOUT_MS", int(policy.TimeoutMs)))
	policy.UserAgent = GetEnv("USER_AGENT", policy.UserAgent)
	policy.FollowRedirects = GetEnvAsBool("FOLLOW_REDIRECTS", policy.FollowRedirects)
	policy.MaxRedirects = GetEnvAsInt("MAX_REDIRECTS", policy.MaxRedirects)

	return CrawlerConfig{
		Name:           GetEnv("CRAWLER_NAME", "crawlkit"),
		MaxConcurrency: GetEnvAsInt("MAX_CONCURRENCY", 8),
		BasePolicy:     policy,
	}
}

// ExpandRequests expands every Source into one depth-0 Request per seed
// URL, layering each source's policy/rules/priority/depth over the
// config's base where the source leaves them unset, and stamping
// metadata["source"] = source.Name, per spec.md §6.
func (c CrawlerConfig) ExpandRequests() []model.Request {
	var out []model.Request
	for _, src := range c.Sources {
		out = append(out, c.expandSource(src)...)
	}
	return out
}

func (c CrawlerConfig) expandSource(src Source) []model.Request {
	policy := c.BasePolicy
	if src.Policy != nil {
		policy = *src.Policy
	}
	rules := c.BaseRules
	if len(src.Rules) > 0 {
		rules = src.Rules
	}
	maxDepth := src.MaxDepth
	priority := src.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	requests := make([]model.Request, 0, len(src.SeedURLs))
	for _, seed := range src.SeedURLs {
		req := model.NewRequest(seed, maxDepth, rules, policy, priority, map[string]string{
			"source": src.Name,
		})
		requests = append(requests, req)
	}
	return requests
}
