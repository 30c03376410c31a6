package emote

import (
	"github.com/google/uuid"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

// Config sets the look and lifetime of records and markers.
type Config struct {
	Offset             world.Vec3 // Record position relative to its pet
	Lifetime           float64    // Seconds a reaction record lives
	MarkerLifetime     float64    // Seconds a chat marker lives
	ProximityThreshold float64    // Used to place markers beside the pair
}

// DefaultConfig derives the stock timings from a conversation length.
func DefaultConfig(conversation float64) Config {
	return Config{
		Offset:             world.V(0, 17.5),
		Lifetime:           conversation * 0.5,
		MarkerLifetime:     conversation * 0.9,
		ProximityThreshold: 15,
	}
}

// Record is a reaction floating above a pet. TargetID is only a lookup
// key; a pet that has gone away simply drops its records.
type Record struct {
	ID       uuid.UUID      `json:"id"`
	TargetID string         `json:"target_id"`
	Kind     agents.Emotion `json:"kind"`
	Index    int            `json:"index"`
	Position world.Vec3     `json:"position"`
	Elapsed  float64        `json:"elapsed"`
	Lifetime float64        `json:"lifetime"`

	fresh bool
}

// Marker is the chat bubble shown beside a pair while they talk.
type Marker struct {
	ID       uuid.UUID      `json:"id"`
	Pair     social.PairKey `json:"pair"`
	Position world.Vec3     `json:"position"`
	Elapsed  float64        `json:"elapsed"`
	Lifetime float64        `json:"lifetime"`

	fresh bool
}

// Pipeline owns the live records and markers.
type Pipeline struct {
	cfg     Config
	records []*Record
	markers []*Marker
}

// NewPipeline creates an empty pipeline.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Dispatch creates one record for every pet whose ID matches the target and
// asks that pet to hold an emote on its next roaming step. Unknown targets are ignored.
func (p *Pipeline) Dispatch(r Reaction, store *agents.Store) []*Record {
	var created []*Record
	for _, a := range store.All() {
		if a.ID != r.TargetID {
			continue
		}
		rec := &Record{
			ID:       uuid.New(),
			TargetID: a.ID,
			Kind:     r.Kind,
			Index:    r.Kind.Index(),
			Position: a.Position.Add(p.cfg.Offset),
			Lifetime: p.cfg.Lifetime,
			fresh:    true,
		}
		p.records = append(p.records, rec)
		created = append(created, rec)

		a.RequestHold(agents.RoamEmoting)
		a.Action = agents.ActionEmote
	}
	return created
}

// SpawnMarker places a chat marker for a newly formed pair, next to where
// the anchor stood when the pair formed.
func (p *Pipeline) SpawnMarker(pair *social.Pair) *Marker {
	half := p.cfg.ProximityThreshold / 2
	pos := pair.AnchorPos
	switch pair.Quadrant {
	case social.TopLeft:
		pos = pos.Add(world.V(0, 20))
	case social.TopRight:
		pos = pos.Add(world.V(half, 15))
	case social.BottomLeft:
		pos = pos.Add(world.V(0, 15))
	case social.BottomRight:
		pos = pos.Add(world.V(-half, 15))
	}

	m := &Marker{
		ID:       uuid.New(),
		Pair:     pair.Key,
		Position: pos,
		Lifetime: p.cfg.MarkerLifetime,
		fresh:    true,
	}
	p.markers = append(p.markers, m)
	pair.ChatMarkerSpawned = true
	return m
}

// Step moves records along with their pets and ages records and markers.
// Records and markers created since the last step start aging on the next
// one. It
// returns how many records and markers were removed.
func (p *Pipeline) Step(dt float64, store *agents.Store) (records, markers int) {
	kept := p.records[:0]
	for _, rec := range p.records {
		a, ok := store.Get(rec.TargetID)
		if !ok {
			records++
			continue
		}
		rec.Position = a.Position.Add(p.cfg.Offset)
		if rec.fresh {
			rec.fresh = false
			kept = append(kept, rec)
			continue
		}
		rec.Elapsed += dt
		if rec.Elapsed >= rec.Lifetime {
			records++
			continue
		}
		kept = append(kept, rec)
	}
	clear(p.records[len(kept):])
	p.records = kept

	live := p.markers[:0]
	for _, m := range p.markers {
		if m.fresh {
			m.fresh = false
			live = append(live, m)
			continue
		}
		m.Elapsed += dt
		if m.Elapsed >= m.Lifetime {
			markers++
			continue
		}
		live = append(live, m)
	}
	clear(p.markers[len(live):])
	p.markers = live
	return records, markers
}

// Records returns copies of the live reaction records.
func (p *Pipeline) Records() []Record {
	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, *r)
	}
	return out
}

// Markers returns copies of the live chat markers.
func (p *Pipeline) Markers() []Marker {
	out := make([]Marker, 0, len(p.markers))
	for _, m := range p.markers {
		out = append(out, *m)
	}
	return out
}

// Counts returns the number of live records and markers.
func (p *Pipeline) Counts() (records, markers int) {
	return len(p.records), len(p.markers)
}
