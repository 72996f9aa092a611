package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
)

var (
	tokenUserID int64
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "mint-token",
	Short: "Mint a bearer token for a user",
	Long: `Mint-token issues a signed bearer token using the configured
signing secret. Intended for operations and local testing.`,
	RunE: runMintToken,
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "User ID the token is issued for")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleStandard, "Role: admin or standard")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runMintToken(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		cfgFile = "config/default.yaml"
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	signer, err := auth.NewSigner(cfg.Auth.Secret, cfg.Auth.TokenTTL())
	if err != nil {
		return err
	}

	token, err := signer.Mint(tokenUserID, tokenRole)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
