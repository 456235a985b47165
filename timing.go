package rytmi

type (
	// NoteEvent is one resolved sounding event: a leaf of the pattern tree
	// with its absolute start position and duration, in beats from the start
	// of the tree's span. Events come out sorted by Start, as the resolver
	// walks children left to right.
	NoteEvent struct {
		NodeID   NodeID
		Start    float64
		Duration float64
		Pitch    int
		Velocity float64
	}
)

// Defaults used when a leaf does not set its own pitch or velocity.
const (
	DefaultPitch    = 60
	DefaultVelocity = 0.8

	// DefaultBaseMeter is the span of a tree's root in beats when the owning
	// pattern does not set one.
	DefaultBaseMeter = 4
)

// ResolveTiming converts a pattern tree into absolute note events. At any node
// with span S and children with divisions d_1..d_n, child i gets the span
// S*d_i/Σd and starts at S*(Σ_{j<i} d_j)/Σd after the node's own start; a leaf
// sounds for its whole allotted span. The root's span is baseMeter beats. All
// positions are float64 beats and boundaries are never rounded, since rounding
// accumulated over deep trees drifts audibly.
func ResolveTiming(root PatternNode, baseMeter float64) []NoteEvent {
	if baseMeter <= 0 {
		baseMeter = DefaultBaseMeter
	}
	events := make([]NoteEvent, 0, root.NumNodes())
	return resolveSpan(&root, 0, baseMeter, events)
}

func resolveSpan(node *PatternNode, start, span float64, events []NoteEvent) []NoteEvent {
	if len(node.Children) == 0 {
		pitch := DefaultPitch
		if node.Pitch != nil {
			pitch = *node.Pitch
		}
		velocity := DefaultVelocity
		if node.Velocity != nil {
			velocity = *node.Velocity
		}
		return append(events, NoteEvent{
			NodeID:   node.ID,
			Start:    start,
			Duration: span,
			Pitch:    pitch,
			Velocity: velocity,
		})
	}
	total := 0
	for i := range node.Children {
		total += max(node.Children[i].Division, 1)
	}
	pos := 0
	for i := range node.Children {
		d := max(node.Children[i].Division, 1)
		childStart := start + span*float64(pos)/float64(total)
		childSpan := span * float64(d) / float64(total)
		events = resolveSpan(&node.Children[i], childStart, childSpan, events)
		pos += d
	}
	return events
}
