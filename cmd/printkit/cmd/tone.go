package cmd

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/MeKo-Tech/printkit/internal/tone"
	"github.com/spf13/cobra"
)

func newToneCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Build an ffmpeg command that synthesises a test tone",
		Long: `Build the ffmpeg command line that generates a test tone with the lavfi
aevalsrc source. Supported waveforms are sine, square, triangle and sawtooth;
--duty applies to square waves only. Use --run to execute ffmpeg directly.

Examples:
  printkit tone
  printkit tone --wave square --freq 1000 --duty 25
  printkit tone --wave triangle --duration 5 --output triangle.wav --run`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTone(cmd, c)
		},
	}

	d := tone.DefaultParams()
	cmd.Flags().String("wave", string(d.Wave), "waveform (sine, square, triangle, sawtooth)")
	cmd.Flags().Float64("freq", d.Freq, "frequency in Hz (20-20000)")
	cmd.Flags().Float64("duration", d.Duration, "duration in seconds")
	cmd.Flags().Float64("duty", d.Duty, "duty cycle in percent for square waves (1-99)")
	cmd.Flags().Float64("amplitude", d.Amplitude, "amplitude (0.05-1.0)")
	cmd.Flags().Int("sample-rate", d.SampleRate, "sample rate in Hz (8000-192000)")
	cmd.Flags().StringP("output", "o", d.Output, "output audio file")
	cmd.Flags().Bool("args", false, "print one argument per line instead of a shell line")
	cmd.Flags().Bool("run", false, "run ffmpeg instead of printing the command")

	return cmd
}

func runTone(cmd *cobra.Command, c *cli) error {
	p := c.conf().ToToneParams()

	if cmd.Flags().Changed("wave") {
		name, _ := cmd.Flags().GetString("wave")
		w, err := tone.ParseWave(name)
		if err != nil {
			return err
		}
		p.Wave = w
	}
	p.Freq, _ = cmd.Flags().GetFloat64("freq")
	p.Duration, _ = cmd.Flags().GetFloat64("duration")
	p.Duty, _ = cmd.Flags().GetFloat64("duty")
	if cmd.Flags().Changed("amplitude") {
		p.Amplitude, _ = cmd.Flags().GetFloat64("amplitude")
	}
	if cmd.Flags().Changed("sample-rate") {
		p.SampleRate, _ = cmd.Flags().GetInt("sample-rate")
	}
	p.Output, _ = cmd.Flags().GetString("output")

	args, err := tone.Args(p)
	if err != nil {
		return err
	}

	if run, _ := cmd.Flags().GetBool("run"); run {
		slog.Info("Running ffmpeg", "wave", p.Wave, "freq", p.Freq, "output", p.Output)
		ff := exec.CommandContext(cmd.Context(), args[0], args[1:]...) //nolint:gosec // G204: argv built from validated params
		ff.Stdout = cmd.OutOrStdout()
		ff.Stderr = cmd.ErrOrStderr()
		if err := ff.Run(); err != nil {
			return fmt.Errorf("ffmpeg failed: %w", err)
		}
		return nil
	}

	if asArgs, _ := cmd.Flags().GetBool("args"); asArgs {
		for _, a := range args {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return nil
	}

	line, err := tone.Command(p)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}
