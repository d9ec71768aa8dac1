package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or show the assetctl configuration",
	}

	var c Config
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a new configuration file",
		Example: `  assetctl config create --server localhost:8194 --user js123
  assetctl config create --server https://assets.example.com:443 --token $TOKEN`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Version = "1.0"
			c.Server = MorphServer(c.Server)
			if err := c.ValidateConfig(); err != nil {
				return err
			}
			file := configFile
			if file == "" {
				var err error
				if file, err = GetDefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := c.WriteConfig(file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", file)
			return nil
		},
	}
	create.Flags().StringVar(&c.Server, "server", "", "Asset server URL including port")
	create.Flags().StringVar(&c.User, "user", "", "Identity to act as")
	create.Flags().StringVar(&c.IdentityHeader, "identity-header", "", "Header carrying the identity when the server uses header auth")
	create.Flags().StringVar(&c.Token, "token", "", "Bearer token when the server uses jwt auth")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadConfig(configFile); err != nil {
				return err
			}
			cfg := GetConfig()
			fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\nUser: %s\n", cfg.Server, cfg.User)
			return nil
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}
