package data

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/entities"
)

func TestNewDataContainerIsEmpty(t *testing.T) {
	dc := NewDataContainer()
	s := dc.State()
	assert.Empty(t, s.Products)
	assert.False(t, s.HistoryLoaded)
	assert.Nil(t, s.LastRun)
	assert.False(t, dc.IsRunning())
	assert.True(t, dc.GetServerStartTime().IsZero())
}

func TestSetProductsDropsLastRun(t *testing.T) {
	dc := NewDataContainer()
	dc.SetLastRun(&entities.RunResult{ID: "r1"})
	dc.SetHistory([]entities.MatchRecord{{ImpurityName: "NDMA"}})

	dc.SetProducts([]entities.ProductEntry{{Name: "Valsartan", TrackingID: "N/A"}}, "upload")

	s := dc.State()
	require.Len(t, s.Products, 1)
	assert.Equal(t, "upload", s.ProductOrigin)
	assert.False(t, s.ProductsAt.IsZero())
	assert.Nil(t, s.LastRun)
	assert.True(t, s.HistoryLoaded, "history survives a new product list")
}

func TestSnapshotsAreIndependent(t *testing.T) {
	dc := NewDataContainer()
	before := dc.State()
	dc.SetLastRun(&entities.RunResult{ID: "r2"})
	assert.Nil(t, before.LastRun)
	assert.Equal(t, "r2", dc.State().LastRun.ID)
}

func TestReset(t *testing.T) {
	dc := NewDataContainer()
	dc.SetProducts([]entities.ProductEntry{{Name: "A"}}, "scrape")
	dc.SetHistory(nil)
	dc.Reset()
	assert.Equal(t, entities.AppState{}, dc.State())
}

func TestBeginRunIsExclusive(t *testing.T) {
	dc := NewDataContainer()

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if dc.BeginRun() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.True(t, dc.IsRunning())
	dc.EndRun()
	assert.True(t, dc.BeginRun())
}

func TestConcurrentUpdatesKeepAllFields(t *testing.T) {
	dc := NewDataContainer()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			dc.SetProducts([]entities.ProductEntry{{Name: "A"}}, "scrape")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			dc.SetHistory([]entities.MatchRecord{{ImpurityName: "X"}})
		}
	}()
	wg.Wait()

	s := dc.State()
	assert.Len(t, s.Products, 1)
	assert.True(t, s.HistoryLoaded)
}

func TestServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	now := time.Now()
	dc.SetServerStartTime(now)
	assert.Equal(t, now, dc.GetServerStartTime())
}
