package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"longform/internal/config"
	"longform/internal/paths"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the project configuration and media directories",
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}

	results := cfg.Validate(pp.Root)
	errs := config.Errors(results)

	if outputJSON {
		payload := struct {
			Project string                    `json:"project"`
			Valid   bool                      `json:"valid"`
			Results []config.ValidationResult `json:"results"`
		}{pp.Root, len(errs) == 0, results}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printFindings(cmd.OutOrStdout(), "", results)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}
	return nil
}
