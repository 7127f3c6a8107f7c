package engine

import (
	"go.uber.org/zap"
)

// DecayResult reports what a decay sweep removed.
type DecayResult struct {
	PrunedSynapses int `json:"pruned_synapses"`
	PrunedNeurons  int `json:"pruned_neurons"`
}

// Decay applies one multiplicative decay sweep to the whole graph, then
// prunes sub-threshold synapses and weak orphan neurons. Runs on the
// caller's schedule — never automatically.
func (e *Engine) Decay() (DecayResult, error) {
	var result DecayResult

	if err := e.DB.DecayNeurons(1-ActivationDecayRate, 1-MyelinDecayRate); err != nil {
		return result, err
	}
	if err := e.DB.DecaySynapses(1 - SynapseDecayRate); err != nil {
		return result, err
	}

	pruned, err := e.DB.PruneSynapses(SynapsePruneThreshold)
	if err != nil {
		return result, err
	}
	result.PrunedSynapses = pruned

	pruned, err = e.DB.PruneNeurons(NeuronPruneFloor, NeuronPruneFloor, NeuronPruneMinAccess)
	if err != nil {
		return result, err
	}
	result.PrunedNeurons = pruned

	if result.PrunedNeurons > 0 {
		if err := e.pruneWindow(); err != nil {
			return result, err
		}
	}

	if result.PrunedSynapses > 0 || result.PrunedNeurons > 0 {
		e.logger.Info("decay sweep complete",
			zap.Int("pruned_synapses", result.PrunedSynapses),
			zap.Int("pruned_neurons", result.PrunedNeurons))
	}
	return result, nil
}
