package cmd

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/printkit/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and generate printkit configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file with every option set to its default.

Examples:
  printkit config init
  printkit config init /etc/printkit/printkit.yaml --force`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(filename); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
			}
			if err := config.GenerateDefaultConfigFile(filename); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the resolved configuration as YAML",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(c.conf())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			c.loader.WriteConfigInfo(w)
			_, err = w.Write(out)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
