package roster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/model"
)

func namedCollector(id string) model.Collector {
	return model.Collector{
		ID:              id,
		Name:            "Collector " + id,
		Phone:           "+254700000000",
		Location:        model.CollectorLocation{Coordinates: model.Coordinates{Lat: -1.28, Lng: 36.82}, LastUpdated: time.Now()},
		Specializations: []model.WasteType{model.WastePlastic},
		VehicleCapacity: 400,
		MaxLoad:         5,
		Rating:          4.2,
		ResponseTimeMin: 18,
		Online:          true,
	}
}

func TestMemoryStore_PutListOrder(t *testing.T) {
	s := NewMemoryStore(namedCollector("a"), namedCollector("b"))
	require.NoError(t, s.Put(context.Background(), namedCollector("c")))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})

	// Re-putting keeps the position and replaces the document.
	updated := namedCollector("b")
	updated.Rating = 4.9
	require.NoError(t, s.Put(context.Background(), updated))
	list, err = s.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", list[1].ID)
	require.Equal(t, 4.9, list[1].Rating)
}

func TestMemoryStore_PutRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	bad := namedCollector("x")
	bad.ID = ""
	require.Error(t, s.Put(context.Background(), bad))
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "ghost")
	require.True(t, errors.Is(err, dispatch.ErrUnknownCollector))
	require.True(t, errors.Is(s.IncrementLoad(context.Background(), "ghost"), dispatch.ErrUnknownCollector))
	require.True(t, errors.Is(s.Remove(context.Background(), "ghost"), dispatch.ErrUnknownCollector))
}

func TestMemoryStore_IncrementLoadConcurrent(t *testing.T) {
	s := NewMemoryStore(namedCollector("a"))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.IncrementLoad(context.Background(), "a"))
		}()
	}
	wg.Wait()

	c, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, n, c.CurrentLoad)
}

func TestMemoryStore_RemoveAndOnline(t *testing.T) {
	s := NewMemoryStore(namedCollector("a"), namedCollector("b"))
	require.NoError(t, s.Remove(context.Background(), "a"))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "b", list[0].ID)

	require.NoError(t, s.SetOnline(context.Background(), "b", false))
	c, err := s.Get(context.Background(), "b")
	require.NoError(t, err)
	require.False(t, c.Online)
}

func TestMemoryStore_UpdateLocation(t *testing.T) {
	s := NewMemoryStore(namedCollector("a"))
	loc := model.CollectorLocation{Coordinates: model.Coordinates{Lat: -1.30, Lng: 36.80}, LastUpdated: time.Now()}
	require.NoError(t, s.UpdateLocation(context.Background(), "a", loc))

	c, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, loc.Coordinates, c.Location.Coordinates)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	require.Equal(t, "memory", cfg.Backend)
	require.NoError(t, cfg.Validate())

	cfg.Backend = "postgres"
	require.Error(t, cfg.Validate())
}
