package server

import (
	"context"

	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/workset"
)

type (
	catalogDelegate    func() *kurs.Catalog
	snapshotDelegate   func(string) (*workset.Snapshot, error)
	subscribeDelegate  func(string) (<-chan *workset.Snapshot, func(), error)
	refreshAllDelegate func(context.Context, string) (*ingest.Result, error)
	refreshOneDelegate func(context.Context, string) (ingest.PatchOutcome, error)
)

type mockService struct {
	catalogFn    catalogDelegate
	snapshotFn   snapshotDelegate
	subscribeFn  subscribeDelegate
	refreshAllFn refreshAllDelegate
	refreshOneFn refreshOneDelegate
}

func (m *mockService) Catalog() *kurs.Catalog {
	if m.catalogFn != nil {
		return m.catalogFn()
	}

	return nil
}

func (m *mockService) Snapshot(city string) (*workset.Snapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(city)
	}

	return nil, nil //nolint:nilnil // mock default
}

func (m *mockService) Subscribe(city string) (<-chan *workset.Snapshot, func(), error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(city)
	}

	return nil, func() {}, nil
}

func (m *mockService) RefreshAll(ctx context.Context, city string) (*ingest.Result, error) {
	if m.refreshAllFn != nil {
		return m.refreshAllFn(ctx, city)
	}

	return nil, nil //nolint:nilnil // mock default
}

func (m *mockService) RefreshOne(ctx context.Context, id string) (ingest.PatchOutcome, error) {
	if m.refreshOneFn != nil {
		return m.refreshOneFn(ctx, id)
	}

	return "", nil
}
