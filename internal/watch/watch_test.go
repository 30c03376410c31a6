package watch

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/api"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

type stillRand struct{}

func (stillRand) Float64() float64 { return 0.1 }

func newFarm(t *testing.T) (*api.Server, *httptest.Server) {
	t.Helper()
	pets := agents.NewSpawner(agents.DefaultSpawnConfig()).Spawn(
		agents.DefaultRoster()[:3],
		[]world.Vec3{world.V(0, 0), world.V(8, 9), world.V(100, 100)},
	)
	sim := engine.NewSimulation(world.NewMap(24, 24, 16), pets, stillRand{}, engine.Options{
		Roam:   agents.RoamParams{TileSize: 16, HoldChance: 0.3},
		Social: social.DefaultConfig(),
		Emote:  emote.DefaultConfig(10),
	})
	s := &api.Server{Sim: sim, Eng: engine.NewEngine(), AdminKey: "key"}
	sim.OnEvent = append(sim.OnEvent, s.EventHook())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub.Close()
		ts.Close()
	})
	return s, ts
}

func TestObserver(t *testing.T) {
	_, ts := newFarm(t)
	o := NewObserver(ts.URL)
	ctx := context.Background()

	require.NoError(t, o.WaitReady(ctx, time.Second))

	st, err := o.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Pets)

	pets, err := o.Pets(ctx)
	require.NoError(t, err)
	require.Len(t, pets, 3)
	assert.Equal(t, "Marcy", pets[2].Name)
	assert.Equal(t, 100.0, pets[2].Position.X)
	assert.Equal(t, "ready", pets[2].Phase)
}

func TestWaitReadyGivesUp(t *testing.T) {
	o := NewObserver("http://127.0.0.1:1")
	err := o.WaitReady(context.Background(), 0)
	assert.Error(t, err)
}

func TestActor(t *testing.T) {
	s, ts := newFarm(t)
	ctx := context.Background()

	res, err := NewActor(ts.URL, "key").Act(ctx, Intervention{Type: "reaction", Pet: "3", Emotion: "Sadness"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	_, pending := s.Sim.ReactionState()
	assert.Len(t, pending, 1)

	_, err = NewActor(ts.URL, "wrong").Act(ctx, Intervention{Type: "reaction", Pet: "3", Emotion: "Sadness"})
	assert.ErrorContains(t, err, "401")
}

func TestStreamFeedsTracker(t *testing.T) {
	s, ts := newFarm(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracker := NewTracker()
	snaps := make(chan []Change, 4)
	events := make(chan string, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Stream(ctx, ts.URL, "", func(snap *SnapshotInfo, ev *engine.Event) {
			if snap != nil {
				snaps <- tracker.Apply(snap)
				return
			}
			events <- ev.Category
		})
	}()

	// Initial snapshot: nobody talking yet.
	select {
	case changes := <-snaps:
		assert.Empty(t, changes)
	case <-ctx.Done():
		t.Fatal("no initial snapshot")
	}

	s.Sim.Step(1.0 / 60)
	assert.Equal(t, "conversation", <-events)

	s.PublishSnapshot()
	changes := <-snaps
	require.Len(t, changes, 1)
	assert.Equal(t, Started, changes[0].Kind)
	assert.Equal(t, [2]string{"Chester", "Jakobo"}, changes[0].Names)
	assert.Equal(t, 1, tracker.Live())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestTrackerReportsEnded(t *testing.T) {
	tr := NewTracker()
	pair := PairInfo{AnchorID: "1", ResponderID: "2", Quadrant: "top_right", FormedTick: 10}
	pair.Key.A, pair.Key.B = "1", "2"

	pets := []PetInfo{{ID: "1", Name: "Chester"}, {ID: "2", Name: "Jakobo"}}
	started := tr.Apply(&SnapshotInfo{Tick: 60, Pets: pets, Pairs: []PairInfo{pair}})
	require.Len(t, started, 1)

	assert.Empty(t, tr.Apply(&SnapshotInfo{Tick: 120, Pairs: []PairInfo{pair}}))

	ended := tr.Apply(&SnapshotInfo{Tick: 660})
	require.Len(t, ended, 1)
	assert.Equal(t, Ended, ended[0].Kind)
	assert.Equal(t, uint64(650), ended[0].Ticks)
	assert.Equal(t, 1, tr.Started)
	assert.Equal(t, 1, tr.Ended)
	assert.Equal(t, "99", tr.Name("99"))
}

func TestMemoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.json")
	m := LoadMemory(path)
	assert.Contains(t, m.Summary(), "no conversations")

	for i := 0; i < maxRecords+5; i++ {
		m.Record(Change{Kind: Ended, Tick: uint64(i), Names: [2]string{"Chester", "Jakobo"}, Ticks: 600})
	}
	m.Record(Change{Kind: Started, Tick: 999})
	require.Len(t, m.Records, maxRecords)
	m.Save()

	loaded := LoadMemory(path)
	require.Len(t, loaded.Records, maxRecords)
	assert.Equal(t, uint64(maxRecords+4), loaded.Records[maxRecords-1].EndTick)
	assert.Contains(t, loaded.Summary(), "Chester and Jakobo talked for 600 ticks")
}

func TestStreamURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/api/v1/stream", StreamURL("http://localhost:8080/"))
	assert.Equal(t, "wss://farm.example/api/v1/stream", StreamURL("https://farm.example"))
}
