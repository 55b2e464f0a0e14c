package biz

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mediatrack/internal/enrich"
)

type memoryItemRepo struct {
	items map[string]map[string]Item // username -> id -> item
}

func newMemoryItemRepo() *memoryItemRepo {
	return &memoryItemRepo{items: map[string]map[string]Item{}}
}

func (r *memoryItemRepo) userItems(username string) map[string]Item {
	if r.items[username] == nil {
		r.items[username] = map[string]Item{}
	}
	return r.items[username]
}

func (r *memoryItemRepo) List(_ context.Context, username string) ([]Item, error) {
	items := make([]Item, 0, len(r.userItems(username)))
	for _, item := range r.userItems(username) {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	return items, nil
}

func (r *memoryItemRepo) Get(_ context.Context, username, id string) (*Item, error) {
	item, ok := r.userItems(username)[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *memoryItemRepo) Upsert(_ context.Context, username string, item *Item) error {
	r.userItems(username)[item.ID] = *item
	return nil
}

func (r *memoryItemRepo) Remove(_ context.Context, username, id string) error {
	delete(r.userItems(username), id)
	return nil
}

func (r *memoryItemRepo) Reorder(_ context.Context, username string, ids []string) error {
	for i, id := range ids {
		if item, ok := r.userItems(username)[id]; ok {
			item.SortOrder = i
			r.userItems(username)[id] = item
		}
	}
	return nil
}

func (r *memoryItemRepo) ReplaceAll(_ context.Context, username string, items []Item) error {
	r.items[username] = map[string]Item{}
	for _, item := range items {
		r.userItems(username)[item.ID] = item
	}
	return nil
}

func (r *memoryItemRepo) UpdateLatestInfo(_ context.Context, username, id, latestInfo string, checkedAt int64) error {
	item, ok := r.userItems(username)[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.LatestUpdateInfo = latestInfo
	r.userItems(username)[id] = item
	return nil
}

func item(id, title string) Item {
	return Item{MediaRecord: enrich.MediaRecord{ID: id, Title: title, Type: enrich.TypeMovie}}
}

func TestSave_DefaultsAndRoundTrip(t *testing.T) {
	uc := NewCollectionUseCase(newMemoryItemRepo())
	ctx := context.Background()

	saved, err := uc.Save(ctx, "alice", item("id-1", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, enrich.DefaultStatus, saved.Status)
	assert.NotZero(t, saved.SavedAt)

	items, err := uc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dune", items[0].Title)

	// Other users see nothing.
	items, err = uc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSave_Validation(t *testing.T) {
	uc := NewCollectionUseCase(newMemoryItemRepo())
	ctx := context.Background()

	_, err := uc.Save(ctx, "alice", item("id-1", ""))
	assert.Error(t, err, "missing title")

	_, err = uc.Save(ctx, "alice", item("", "Dune"))
	assert.Error(t, err, "missing id")
}

func TestReorder(t *testing.T) {
	uc := NewCollectionUseCase(newMemoryItemRepo())
	ctx := context.Background()

	for i, title := range []string{"A", "B", "C"} {
		it := item(title, title)
		it.SortOrder = i
		_, err := uc.Save(ctx, "alice", it)
		require.NoError(t, err)
	}

	require.NoError(t, uc.Reorder(ctx, "alice", []string{"C", "A", "B"}))

	items, err := uc.List(ctx, "alice")
	require.NoError(t, err)
	titles := []string{items[0].Title, items[1].Title, items[2].Title}
	assert.Equal(t, []string{"C", "A", "B"}, titles)
}

func TestImport_SkipsInvalidAndReplaces(t *testing.T) {
	uc := NewCollectionUseCase(newMemoryItemRepo())
	ctx := context.Background()

	_, err := uc.Save(ctx, "alice", item("old", "Old Item"))
	require.NoError(t, err)

	count, err := uc.Import(ctx, "alice", []Item{
		item("id-1", "Dune"),
		item("", "No ID"),
		item("id-2", ""),
		item("id-3", "Foundation"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := uc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2, "import replaces the previous collection")
}

func TestApplyUpdates(t *testing.T) {
	repo := newMemoryItemRepo()
	uc := NewCollectionUseCase(repo)
	ctx := context.Background()

	it := item("id-1", "One Piece")
	it.IsOngoing = true
	it.LatestUpdateInfo = "Chapter 1120"
	_, err := uc.Save(ctx, "alice", it)
	require.NoError(t, err)

	err = uc.ApplyUpdates(ctx, "alice", []enrich.Update{
		{ID: "id-1", Title: "One Piece", LatestUpdateInfo: "Chapter 1125", HasNewUpdate: true, CheckedAt: 100},
		{ID: "missing", Title: "Gone", LatestUpdateInfo: "x", HasNewUpdate: false},
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "alice", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1125", got.LatestUpdateInfo)
}
