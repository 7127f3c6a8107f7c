package engine

// Stats summarizes the memory graph.
type Stats struct {
	NeuronCount    int     `json:"neuron_count"`
	SynapseCount   int     `json:"synapse_count"`
	Superhighways  int     `json:"superhighways"`
	TotalAccesses  int     `json:"total_accesses"`
	AvgMyelination float64 `json:"avg_myelination"`
}

// superhighwayThreshold is the myelination above which a neuron counts as a
// superhighway.
const superhighwayThreshold = 0.5

// Stats returns graph-wide counts and averages.
func (e *Engine) Stats() (*Stats, error) {
	var s Stats
	var err error

	if s.NeuronCount, err = e.DB.CountNeurons(); err != nil {
		return nil, err
	}
	if s.SynapseCount, err = e.DB.CountSynapses(); err != nil {
		return nil, err
	}
	if s.Superhighways, err = e.DB.CountSuperhighways(superhighwayThreshold); err != nil {
		return nil, err
	}
	if s.TotalAccesses, err = e.DB.CountAccesses(); err != nil {
		return nil, err
	}
	if s.AvgMyelination, err = e.DB.AvgMyelination(); err != nil {
		return nil, err
	}
	return &s, nil
}
