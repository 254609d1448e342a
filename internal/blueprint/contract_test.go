package blueprint_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/blueprints/internal/blueprint"
)

// runRepositoryContract exercises the behaviour every Repository must share.
// newRepo must return a repository on an empty store with the schema in place.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) blueprint.Repository) {
	t.Helper()

	ctx := context.Background()

	// --- Save / Get ---

	t.Run("save and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		bp := &blueprint.Blueprint{
			Author: "ana",
			Name:   "house",
			Points: []blueprint.Point{{X: 10, Y: 10}, {X: -3, Y: 7}, {X: 10, Y: 10}, {X: 0, Y: 0}},
		}

		require.NoError(t, repo.Save(ctx, bp))

		found, err := repo.Get(ctx, "ana", "house")
		require.NoError(t, err)
		assert.Equal(t, "ana", found.Author)
		assert.Equal(t, "house", found.Name)
		assert.Equal(t, bp.Points, found.Points)
	})

	t.Run("save blueprint without points", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "empty"}))

		found, err := repo.Get(ctx, "ana", "empty")
		require.NoError(t, err)
		require.NotNil(t, found.Points)
		assert.Empty(t, found.Points)
	})

	t.Run("get unknown name of known author", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house"}))

		_, err := repo.Get(ctx, "ana", "garden")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
		assert.Equal(t, blueprint.KindNotFound, blueprint.KindOf(err))
	})

	t.Run("identity is case sensitive", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house"}))
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "Ana", Name: "house"}))

		_, err := repo.Get(ctx, "ana", "House")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	t.Run("duplicate save is a conflict and keeps the first", func(t *testing.T) {
		repo := newRepo(t)
		first := &blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 1, Y: 1}}}
		require.NoError(t, repo.Save(ctx, first))

		second := &blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 2, Y: 2}, {X: 3, Y: 3}}}
		err := repo.Save(ctx, second)
		assert.ErrorIs(t, err, blueprint.ErrDuplicateBlueprint)
		assert.Equal(t, blueprint.KindConflict, blueprint.KindOf(err))

		found, err := repo.Get(ctx, "ana", "house")
		require.NoError(t, err)
		assert.Equal(t, []blueprint.Point{{X: 1, Y: 1}}, found.Points)
	})

	// --- AppendPoint ---

	t.Run("append sequence", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{
			Author: "ana", Name: "house", Points: []blueprint.Point{{X: 0, Y: 0}},
		}))

		idx, err := repo.AppendPoint(ctx, "ana", "house", blueprint.Point{X: 3, Y: 4})
		require.NoError(t, err)
		assert.Equal(t, 1, idx)

		idx, err = repo.AppendPoint(ctx, "ana", "house", blueprint.Point{X: 5, Y: 6})
		require.NoError(t, err)
		assert.Equal(t, 2, idx)

		found, err := repo.Get(ctx, "ana", "house")
		require.NoError(t, err)
		assert.Equal(t, []blueprint.Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 5, Y: 6}}, found.Points)

		byAuthor, err := repo.ListByAuthor(ctx, "ana")
		require.NoError(t, err)
		require.Len(t, byAuthor, 1)
		assert.Equal(t, *found, byAuthor[0])
	})

	t.Run("append to blueprint without points starts at zero", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "empty"}))

		idx, err := repo.AppendPoint(ctx, "ana", "empty", blueprint.Point{X: 1, Y: 2})
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("append to unknown blueprint", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house"}))

		_, err := repo.AppendPoint(ctx, "ana", "garden", blueprint.Point{X: 1, Y: 1})
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Empty(t, all[0].Points)
	})

	t.Run("concurrent appends get distinct indices", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "race"}))

		const n = 20
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			indices []int
			errs    []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				idx, err := repo.AppendPoint(ctx, "ana", "race", blueprint.Point{X: i, Y: i})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				indices = append(indices, idx)
			}(i)
		}
		wg.Wait()

		require.Empty(t, errs)
		sort.Ints(indices)
		expected := make([]int, n)
		for i := range expected {
			expected[i] = i
		}
		assert.Equal(t, expected, indices)

		found, err := repo.Get(ctx, "ana", "race")
		require.NoError(t, err)
		assert.Len(t, found.Points, n)
	})

	// --- ListByAuthor ---

	t.Run("list by author includes blueprints without points", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "tower", Points: []blueprint.Point{{X: 1, Y: 1}}}))
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "garden"}))
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "bob", Name: "shed"}))

		result, err := repo.ListByAuthor(ctx, "ana")
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "garden", result[0].Name)
		assert.Empty(t, result[0].Points)
		assert.Equal(t, "tower", result[1].Name)
		assert.Equal(t, []blueprint.Point{{X: 1, Y: 1}}, result[1].Points)
	})

	t.Run("list by unknown author", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house"}))

		_, err := repo.ListByAuthor(ctx, "unknown")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	// --- List ---

	t.Run("list empty store", func(t *testing.T) {
		repo := newRepo(t)

		result, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("list all blueprints", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "bob", Name: "shed", Points: []blueprint.Point{{X: 4, Y: 4}, {X: 5, Y: 5}}}))
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 1, Y: 1}}}))
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "empty"}))

		result, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, result, 3)

		assert.Equal(t, blueprint.Blueprint{Author: "ana", Name: "empty", Points: []blueprint.Point{}}, result[0])
		assert.Equal(t, blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 1, Y: 1}}}, result[1])
		assert.Equal(t, blueprint.Blueprint{Author: "bob", Name: "shed", Points: []blueprint.Point{{X: 4, Y: 4}, {X: 5, Y: 5}}}, result[2])
	})

	// --- Delete ---

	t.Run("delete cascades to points", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}))

		require.NoError(t, repo.Delete(ctx, "ana", "house"))

		_, err := repo.Get(ctx, "ana", "house")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)

		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house", Points: []blueprint.Point{{X: 9, Y: 9}}}))
		found, err := repo.Get(ctx, "ana", "house")
		require.NoError(t, err)
		assert.Equal(t, []blueprint.Point{{X: 9, Y: 9}}, found.Points)
	})

	t.Run("delete unknown blueprint", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Delete(ctx, "ana", "house")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	// --- Schema ---

	t.Run("ensure schema is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, &blueprint.Blueprint{Author: "ana", Name: "house"}))

		require.NoError(t, repo.EnsureSchema(ctx))

		_, err := repo.Get(ctx, "ana", "house")
		assert.NoError(t, err)
	})
}
