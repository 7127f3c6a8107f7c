package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/brainbox/internal/config"
	"github.com/lazypower/brainbox/internal/engine"
	"github.com/lazypower/brainbox/internal/store"
)

// Operator commands that open the engine directly, without the server.

var (
	brainDBPath   string
	recordType    string
	recordContext string
	recallType    string
	recallLimit   int
)

var recordCmd = &cobra.Command{
	Use:   "record <path>",
	Short: "Record an access to a file, tool, error or fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Record(args[0], store.NeuronType(recordType), recordContext)
		})
	},
}

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Recall ranked memory candidates for a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			results, err := eng.Recall(args[0], store.NeuronType(recallType), recallLimit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%.3f  %-10s  [%s] %s\n",
					r.Confidence, r.ActivationPath, r.Neuron.Type, r.Neuron.Path)
			}
			return nil
		})
	},
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run one decay sweep and prune the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			result, err := eng.Decay()
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d synapses, %d neurons\n",
				result.PrunedSynapses, result.PrunedNeurons)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print memory graph statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			stats, err := eng.Stats()
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(stats)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{recordCmd, recallCmd, decayCmd, statsCmd} {
		cmd.Flags().StringVar(&brainDBPath, "db", "", "database path (default ~/.brainbox/brainbox.db)")
	}
	recordCmd.Flags().StringVar(&recordType, "type", "file", "neuron type: file, tool, error, semantic")
	recordCmd.Flags().StringVar(&recordContext, "context", "", "context string to attach")
	recallCmd.Flags().StringVar(&recallType, "type", "file", "neuron type to recall")
	recallCmd.Flags().IntVar(&recallLimit, "limit", engine.DefaultRecallLimit, "max results")
}

func withEngine(fn func(*engine.Engine) error) error {
	dbPath, err := resolveDBPath(brainDBPath, config.Default())
	if err != nil {
		return err
	}

	eng, err := engine.Open(dbPath, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	return fn(eng)
}
