package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryCategories struct {
	byName map[string]po.Category
	err    error
}

func (m *memoryCategories) List(context.Context, txmanager.Session) ([]po.Category, error) {
	out := make([]po.Category, 0, len(m.byName))
	for _, c := range m.byName {
		out = append(out, c)
	}
	return out, m.err
}

func (m *memoryCategories) InsertMany(_ context.Context, _ txmanager.Session, items []repositories.SeedCategory) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var inserted int64
	for _, item := range items {
		if _, ok := m.byName[item.Name]; ok {
			continue
		}
		m.byName[item.Name] = po.Category{ID: uuid.New(), Name: item.Name, Description: &item.Description}
		inserted++
	}
	return inserted, nil
}

func TestCategorySeedIsIdempotent(t *testing.T) {
	store := &memoryCategories{byName: map[string]po.Category{}}
	svc := services.NewCategoryService(store, testLogger)
	ctx := context.Background()

	inserted, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(14), inserted)
	require.Equal(t, "Videos related to cars and vehicles", *store.byName["Cars and vehicles"].Description)

	inserted, err = svc.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, inserted)

	list, err := svc.GetMany(ctx)
	require.NoError(t, err)
	require.Len(t, list, 14)
}

func TestCategorySeedPropagatesErrors(t *testing.T) {
	store := &memoryCategories{byName: map[string]po.Category{}, err: errors.New("db down")}
	svc := services.NewCategoryService(store, testLogger)

	_, err := svc.Seed(context.Background())
	require.Error(t, err)
}
