package minimax

// Stats counts the work done by one search.
type Stats struct {
	// Nodes is the number of boards visited, the root included.
	Nodes int64 `json:"nodes"`
	// Leaves is the number of terminal boards scored.
	Leaves int64 `json:"leaves"`
	// Cutoffs is the number of nodes that stopped early after reaching the
	// best value possible for their side.
	Cutoffs int64 `json:"cutoffs"`
}

func (s *Stats) add(o Stats) {
	s.Nodes += o.Nodes
	s.Leaves += o.Leaves
	s.Cutoffs += o.Cutoffs
}
