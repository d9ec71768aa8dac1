package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const cliVersion = "v0.1.0"

var (
	// Global flags
	jsonOutput bool
	configFile string
)

// NewRootCmd builds the assetctl command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assetctl",
		Short: "assetctl is a command line interface for the asset version control server",
		Long: `assetctl lists, registers, checks out and checks in digital assets
stored on an asset server, and browses their commit history.`,
		PersistentPreRunE: preRunHandlePersistents,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	cmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")

	cmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newListCmd(),
		newGetCmd(),
		newRegisterCmd(),
		newCheckoutCmd(),
		newCheckinCmd(),
		newCancelCmd(),
		newUploadCmd(),
		newDownloadCmd(),
		newHistoryCmd(),
		newCommitsCmd(),
		newCommitCmd(),
		newApproveCmd(),
	)
	return cmd
}

// Execute runs the root command and reports errors in the selected format.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" || c.Name() == "version" {
			return nil
		}
	}
	if GetConfig() != nil && configFile == "" {
		return nil
	}
	if err := LoadConfig(configFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found; run \"assetctl config create\" first")
		}
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of assetctl",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{"version": cliVersion})
			} else {
				cmd.Println("assetctl " + cliVersion)
			}
		},
	}
}

// printJSON prints data as indented JSON
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}

// printResponse renders a raw JSON server response as YAML, or as JSON
// wrapped in a result envelope when --json is set.
func printResponse(cmd *cobra.Command, body []byte) error {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), map[string]any{"result": 1, "value": data})
		return nil
	}
	yamlBytes, err := yaml.JSONToYAML(body)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %v", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes))
	return nil
}

func client() *HTTPClient {
	return NewHTTPClient(GetConfig())
}
