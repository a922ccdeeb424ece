package ingest

import (
	"context"

	"github.com/sig-0/fxpoints/provider/kurs"
)

type (
	nameDelegate  func() string
	fetchDelegate func(context.Context, *kurs.City) (*kurs.Report, error)
)

type mockProvider struct {
	nameFn  nameDelegate
	fetchFn fetchDelegate
}

func (m *mockProvider) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return testProviderName
}

func (m *mockProvider) Fetch(ctx context.Context, city *kurs.City) (*kurs.Report, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, city)
	}

	return &kurs.Report{City: city}, nil
}
