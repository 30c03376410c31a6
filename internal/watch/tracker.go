package watch

// ChangeKind says whether a conversation appeared or went away.
type ChangeKind string

const (
	Started ChangeKind = "started"
	Ended   ChangeKind = "ended"
)

// Change is a conversation that started or ended between two snapshots.
type Change struct {
	Kind  ChangeKind
	Tick  uint64
	Pair  PairInfo
	Names [2]string // Anchor, responder
	Ticks uint64    // How long an ended conversation lasted
}

// Tracker diffs successive snapshots into conversation changes. It only
// sees what the snapshots show, so a pair that forms and ends between two
// of them is never reported.
type Tracker struct {
	live  map[string]PairInfo
	names map[string]string

	Started int
	Ended   int
}

// NewTracker returns a tracker that has seen no snapshot yet.
func NewTracker() *Tracker {
	return &Tracker{
		live:  make(map[string]PairInfo),
		names: make(map[string]string),
	}
}

// Apply folds a snapshot in and returns the changes since the previous one.
// Pairs already live in the first snapshot are reported as started.
func (t *Tracker) Apply(snap *SnapshotInfo) []Change {
	for _, p := range snap.Pets {
		t.names[p.ID] = p.Name
	}

	var changes []Change
	now := make(map[string]PairInfo, len(snap.Pairs))
	for _, p := range snap.Pairs {
		now[p.ID()] = p
		if _, ok := t.live[p.ID()]; !ok {
			changes = append(changes, t.change(Started, snap.Tick, p))
			t.Started++
		}
	}
	for id, p := range t.live {
		if _, ok := now[id]; !ok {
			c := t.change(Ended, snap.Tick, p)
			if snap.Tick > p.FormedTick {
				c.Ticks = snap.Tick - p.FormedTick
			}
			changes = append(changes, c)
			t.Ended++
		}
	}

	t.live = now
	return changes
}

// Live is the number of conversations in the last snapshot.
func (t *Tracker) Live() int {
	return len(t.live)
}

// Name resolves a pet ID to its last known name.
func (t *Tracker) Name(id string) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return id
}

func (t *Tracker) change(kind ChangeKind, tick uint64, p PairInfo) Change {
	return Change{
		Kind:  kind,
		Tick:  tick,
		Pair:  p,
		Names: [2]string{t.Name(p.AnchorID), t.Name(p.ResponderID)},
	}
}
