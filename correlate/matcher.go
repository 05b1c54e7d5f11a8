package correlate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/util"
)

// ErrRegexTimeout is returned when a regex evaluation exceeds the
// configured match timeout. regexp2's MatchTimeout bounds backtracking,
// which is the actual ReDoS guard; the registration-time validation in
// util only rejects the obvious cases early.
var ErrRegexTimeout = errors.New("regex evaluation timeout")

// Matchers validates, compiles, and caches regex patterns for condition
// evaluation. The cache is a bounded LRU so a stream of unique patterns
// through the API cannot grow memory without limit.
type Matchers struct {
	cache     *lru.Cache[string, *regexp2.Regexp]
	validator *util.RegexValidator
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// NewMatchers creates a matcher cache from engine settings.
func NewMatchers(cfg config.EngineConfig, logger *zap.SugaredLogger) (*Matchers, error) {
	cache, err := lru.New[string, *regexp2.Regexp](cfg.MatcherCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating matcher cache: %w", err)
	}
	return &Matchers{
		cache:     cache,
		validator: util.NewRegexValidator(cfg.RegexMaxLength),
		timeout:   time.Duration(cfg.RegexTimeoutMs) * time.Millisecond,
		logger:    logger,
	}, nil
}

// Compile validates a pattern and returns its compiled form, caching the
// result. Called both at rule registration (to reject bad patterns up
// front) and lazily at match time.
func (m *Matchers) Compile(pattern string, ignoreCase bool) (*regexp2.Regexp, error) {
	key := cacheKey(pattern, ignoreCase)
	if re, ok := m.cache.Get(key); ok {
		return re, nil
	}

	if err := m.validator.ValidatePattern(pattern); err != nil {
		return nil, err
	}

	opts := regexp2.RegexOptions(regexp2.RE2)
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("compiling regex pattern: %w", err)
	}
	re.MatchTimeout = m.timeout

	m.cache.Add(key, re)
	return re, nil
}

// Match tests input against a pattern with timeout protection.
func (m *Matchers) Match(pattern, input string, ignoreCase bool) (bool, error) {
	re, err := m.Compile(pattern, ignoreCase)
	if err != nil {
		return false, err
	}

	matched, err := re.MatchString(input)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			m.logger.Warnw("Regex evaluation timed out",
				"pattern", pattern, "timeout", m.timeout, "input_length", len(input))
			return false, ErrRegexTimeout
		}
		return false, fmt.Errorf("regex matching error: %w", err)
	}
	return matched, nil
}

func cacheKey(pattern string, ignoreCase bool) string {
	if ignoreCase {
		return "i:" + pattern
	}
	return "s:" + pattern
}
