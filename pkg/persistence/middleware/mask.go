package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/ports"
)

// Mask replaces every masked value.
const Mask = "***"

type maskMiddleware struct {
	next     ports.ResultStore
	patterns []*regexp.Regexp
}

// NewMaskMiddleware masks, before saving, every value whose slash-separated
// path matches one of the patterns. A masked subtree is replaced as a whole.
// The tree handed to Save is left untouched.
func NewMaskMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.ResultStore) ports.ResultStore {
		return &maskMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *maskMiddleware) Save(ctx context.Context, id string, tree domain.Tree) error {
	masked := tree.Snapshot()
	m.mask(masked, "")
	return m.next.Save(ctx, id, masked)
}

func (m *maskMiddleware) Load(ctx context.Context, id string) (domain.Tree, error) {
	return m.next.Load(ctx, id)
}

func (m *maskMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *maskMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *maskMiddleware) mask(node map[string]any, prefix string) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "/" + k
		}
		if m.matches(path) {
			node[k] = Mask
			continue
		}
		switch sub := v.(type) {
		case domain.Tree:
			m.mask(sub, path)
		case map[string]any:
			m.mask(sub, path)
		}
	}
}

func (m *maskMiddleware) matches(path string) bool {
	for _, p := range m.patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}
