package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/contact-scraper/internal/disambiguate"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	args := m.Called(ctx, rawURL)
	return args.String(0), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Name() string { return "mock" }

func (m *mockResolver) Resolve(ctx context.Context, reqs []disambiguate.Request) ([]string, error) {
	args := m.Called(ctx, reqs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
