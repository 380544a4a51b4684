package standard

import (
	"path/filepath"
	"sync"
	"testing"

	"HalalScreener/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ApplyReplacesWholesale(t *testing.T) {
	reg, err := NewRegistry(Request{Standard: AAOIFI})
	require.NoError(t, err)
	assert.Equal(t, Default(), reg.Current())

	cfg, err := reg.Apply(Request{Standard: DowJones, Battery: BatteryLegacy})
	require.NoError(t, err)
	assert.Equal(t, cfg, reg.Current())
	assert.Equal(t, 0.33, reg.Current().Thresholds.MaxReceivablesRatio)
	assert.Zero(t, reg.Current().Thresholds.MaxInterestBearingSecurities)
	assert.Equal(t, DowJones, reg.Selection().Standard)
}

func TestRegistry_InvalidKeepsPrevious(t *testing.T) {
	reg, err := NewRegistry(Request{Standard: SPShariah})
	require.NoError(t, err)
	before := reg.Current()

	_, err = reg.Apply(Request{Standard: Custom, Overrides: map[string]float64{KeyDebt: 0.2, KeyHaramRevenue: 2}})
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)
	assert.Equal(t, before, reg.Current())
	assert.Equal(t, SPShariah, reg.Selection().Standard)
}

func TestRegistry_NewRejectsInvalid(t *testing.T) {
	_, err := NewRegistry(Request{Standard: Custom, Overrides: map[string]float64{KeyDebt: 0}})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestRegistry_BatchBlocksApply(t *testing.T) {
	reg, err := NewRegistry(Request{})
	require.NoError(t, err)

	snap, release := reg.Begin()
	assert.Equal(t, 1, reg.InFlight())

	_, err = reg.Apply(Request{Standard: DowJones})
	assert.ErrorIs(t, err, ErrBatchInFlight)
	assert.Equal(t, snap, reg.Current())

	release()
	release()
	assert.Equal(t, 0, reg.InFlight())

	_, err = reg.Apply(Request{Standard: DowJones})
	assert.NoError(t, err)
}

func TestRegistry_ConcurrentReadersSeeCompleteConfigs(t *testing.T) {
	reg, err := NewRegistry(Request{})
	require.NoError(t, err)

	aaoifi := Default()
	dj, err := Select(DowJones, BatteryAAOIFI, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c := reg.Current()
				if c != aaoifi && c != dj {
					t.Errorf("observed partial config: %+v", c)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		name := AAOIFI
		if i%2 == 0 {
			name = DowJones
		}
		_, err := reg.Apply(Request{Standard: name})
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestRegistry_PersistsSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "standard.json")
	reg, err := NewRegistry(Request{}, WithStateFile(path))
	require.NoError(t, err)

	req := Request{Standard: Custom, Battery: BatteryLegacy, Overrides: map[string]float64{KeyReceivables: 0.45}}
	_, err = reg.Apply(req)
	require.NoError(t, err)

	loaded, err := LoadSelection(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, req, *loaded)
}

func TestLoadSelection_Missing(t *testing.T) {
	req, err := LoadSelection(filepath.Join(t.TempDir(), "none.json"))
	assert.NoError(t, err)
	assert.Nil(t, req)
}
