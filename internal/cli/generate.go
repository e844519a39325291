package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"longform/internal/acquire"
	"longform/internal/config"
	"longform/internal/tui"
)

func newGenerateCmd() *cobra.Command {
	var (
		genre  string
		prompt string
		model  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate background tracks with the remote music service",
		Long: "Submits the configured prompt to the instrumental generation service, waits\n" +
			"for the task to finish and saves every returned track under\n" +
			"<generate.output_dir>/<genre>/. The API key is read from " + config.APIKeyEnv + ".",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, genre, prompt, model)
		},
	}
	cmd.Flags().StringVar(&genre, "genre", "", "genre folder for the new tracks (asked interactively when omitted)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "override the configured prompt")
	cmd.Flags().StringVar(&model, "model", "", "override the configured model")
	return cmd
}

func runGenerate(cmd *cobra.Command, genre, prompt, model string) error {
	s, err := openSession("generate")
	if err != nil {
		return err
	}
	defer s.Close()

	if strings.TrimSpace(genre) == "" {
		genre, err = askGenre(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}
	if prompt == "" {
		prompt = s.cfg.Generate.Prompt
	}
	if model == "" {
		model = s.cfg.Generate.Model
	}

	stderr := cmd.ErrOrStderr()
	interactive := !outputJSON && tui.IsTerminal(stderr)

	var status *tui.StatusWriter
	opts := acquire.Options{
		Endpoint:     s.cfg.Generate.Endpoint,
		StatusURL:    s.cfg.Generate.StatusURL,
		APIKey:       config.APIKey(),
		Model:        model,
		PollInterval: s.cfg.Generate.PollInterval(),
		Timeout:      s.cfg.Generate.Timeout(),
		OutputDir:    s.pp.GeneratedDir,
		Logger:       s.logger,
	}
	if interactive {
		opts.OnStatus = func(taskID, state string) {
			status.Update("Task %s: %s", taskID, state)
			// Clear the spinner before download bars start drawing.
			if state == acquire.StatusSucceeded {
				status.Stop(fmt.Sprintf("Task %s succeeded", taskID))
			}
		}
		opts.Progress = stderr
	} else if !outputJSON {
		last := ""
		opts.OnStatus = func(taskID, state string) {
			if state != last {
				fmt.Fprintf(stderr, "task %s: %s\n", taskID, state)
				last = state
			}
		}
	}

	client, err := acquire.New(opts)
	if err != nil {
		if errors.Is(err, acquire.ErrMissingAPIKey) {
			return fmt.Errorf("%w: set %s in the environment or %s", err, config.APIKeyEnv, s.pp.Rel(s.pp.EnvFile))
		}
		return err
	}

	if interactive {
		status = tui.NewStatusWriter(stderr)
		status.Update("Submitting generation request")
	}
	result, err := client.Generate(commandContext(cmd), genre, prompt)
	if status != nil {
		status.Stop("")
	}
	if err != nil {
		var failed *acquire.TaskFailedError
		if errors.As(err, &failed) {
			s.logger.Printf("generation failed: %v", failed)
		}
		if len(result.Files) > 0 {
			fmt.Fprintf(stderr, "Saved %d file(s) before the failure\n", len(result.Files))
		}
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Task %s: saved %d track(s) to %s\n", result.TaskID, len(result.Files), s.pp.Rel(result.Dir))
	for _, file := range result.Files {
		fmt.Fprintf(out, "  %s\n", s.pp.Rel(file))
	}
	return nil
}

// askGenre reads a genre name from in, prompting on out.
func askGenre(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Genre folder for the new tracks: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read genre: %w", err)
	}
	genre := strings.TrimSpace(line)
	if genre == "" {
		return "", acquire.ErrEmptyGenre
	}
	return genre, nil
}
