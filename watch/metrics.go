package watch

// Metrics aggregates the per-subscription outcomes of one sweep or one push
// event. Used for human-readable summaries only, never for control flow.
type Metrics struct {
	Selected  int
	Updated   int
	Unchanged int
	Notified  int
	Errored   int
}

func (m *Metrics) Add(other *Metrics) {
	m.Selected += other.Selected
	m.Updated += other.Updated
	m.Unchanged += other.Unchanged
	m.Notified += other.Notified
	m.Errored += other.Errored
}
