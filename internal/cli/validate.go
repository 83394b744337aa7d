package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/compare-engine/internal/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a Comparison Memory definition file (YAML or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := readDefinition(args[0])
		if err != nil {
			return err
		}
		errs := model.Validate(m)
		if len(errs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		}
		for _, e := range errs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", e.Code, e.Error())
		}
		return fmt.Errorf("%d validation error(s)", len(errs))
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}

func readDefinition(path string) (model.ComparisonMemory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ComparisonMemory{}, err
	}
	var m model.ComparisonMemory
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return model.ComparisonMemory{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return model.ComparisonMemory{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return m, nil
}
