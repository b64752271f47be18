// lectl is the operator CLI for a running ledgerlink instance. It fetches
// and verifies audit records and drives trustline reconciliation through
// the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/orbitpay/ledgerlink/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL     string
	internalToken string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lectl",
	Short: "ledgerlink operator CLI",
	Long: `lectl drives a running ledgerlink instance: fetch and verify audit
records against the Stellar network, and check or refresh employee
trustlines.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.SetEnvPrefix("LEDGERLINK")
		viper.AutomaticEnv()

		if serverURL == "" {
			serverURL = viper.GetString("SERVER")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if internalToken == "" {
			internalToken = viper.GetString("TOKEN")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "ledgerlink base URL (env LEDGERLINK_SERVER)")
	rootCmd.PersistentFlags().StringVar(&internalToken, "token", "", "internal API token (env LEDGERLINK_TOKEN)")

	auditCmd.AddCommand(auditFetchCmd, auditGetCmd, auditListCmd, auditVerifyCmd)
	trustlineCmd.AddCommand(trustlineCheckCmd, trustlineGetCmd, trustlineRefreshCmd, trustlinePromptCmd)
	rootCmd.AddCommand(auditCmd, trustlineCmd, versionCmd)
}

func api() *client.Client {
	return client.New(serverURL, client.WithInternalToken(internalToken))
}

func cliCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "lectl: %v\n", err)
	os.Exit(1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lectl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

// ── audit ────────────────────────────────────────────────────────────────────

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Manage the transaction audit trail",
}

var auditFetchCmd = &cobra.Command{
	Use:   "fetch <tx-hash>",
	Short: "Fetch a transaction from the ledger and store it as an audit record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		rec, err := api().FetchAudit(ctx, args[0])
		if err != nil {
			fail(err)
		}
		printJSON(rec)
	},
}

var auditGetCmd = &cobra.Command{
	Use:   "get <tx-hash>",
	Short: "Show a stored audit record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		rec, err := api().GetAudit(ctx, args[0])
		if err != nil {
			fail(err)
		}
		printJSON(rec)
	},
}

var (
	listPage   int
	listLimit  int
	listSource string
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored audit records",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		page, err := api().ListAudits(ctx, listPage, listLimit, listSource)
		if err != nil {
			fail(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TX HASH\tSOURCE ACCOUNT\tFETCHED AT")
		for _, rec := range page.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rec.TxHash, rec.SourceAccount, rec.FetchedAt.Format(time.RFC3339))
		}
		w.Flush() //nolint:errcheck
		fmt.Printf("page %d/%d (%d total)\n", page.Page, page.TotalPages, page.Total)
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <tx-hash>",
	Short: "Re-check a stored audit record against the live ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		result, err := api().VerifyAudit(ctx, args[0])
		if err != nil {
			fail(err)
		}
		if result.Verified {
			fmt.Println("verified: stored record matches the ledger")
			return
		}
		fmt.Println("NOT VERIFIED — mismatched fields:")
		for _, f := range result.Mismatches {
			fmt.Printf("  - %s\n", f)
		}
		os.Exit(1)
	},
}

// ── trustline ────────────────────────────────────────────────────────────────

var trustlineCmd = &cobra.Command{
	Use:   "trustline",
	Short: "Check and reconcile employee trustlines",
}

var (
	assetCode   string
	assetIssuer string
)

var trustlineCheckCmd = &cobra.Command{
	Use:   "check <wallet-address>",
	Short: "Check whether a wallet trusts the asset on the ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		result, err := api().CheckTrustline(ctx, args[0], assetCode, assetIssuer)
		if err != nil {
			fail(err)
		}
		printJSON(result)
	},
}

var trustlineGetCmd = &cobra.Command{
	Use:   "get <employee-id>",
	Short: "Show the stored trustline record for an employee",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		rec, err := api().GetEmployeeTrustline(ctx, args[0])
		if err != nil {
			fail(err)
		}
		printJSON(rec)
	},
}

var trustlineRefreshCmd = &cobra.Command{
	Use:   "refresh <employee-id>",
	Short: "Reconcile an employee's trustline record with the ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		rec, err := api().RefreshEmployeeTrustline(ctx, args[0], assetIssuer)
		if err != nil {
			fail(err)
		}
		if rec == nil {
			fmt.Println("nothing to refresh: employee unknown or no wallet bound")
			return
		}
		printJSON(rec)
	},
}

var promptWallet string

var trustlinePromptCmd = &cobra.Command{
	Use:   "prompt <employee-id>",
	Short: "Build an unsigned change-trust transaction and mark the record pending",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := cliCtx()
		defer cancel()
		result, err := api().PromptTrustline(ctx, args[0], promptWallet, assetCode, assetIssuer)
		if err != nil {
			fail(err)
		}
		printJSON(result)
	},
}

func init() {
	auditListCmd.Flags().IntVar(&listPage, "page", 1, "page number (1-indexed)")
	auditListCmd.Flags().IntVar(&listLimit, "limit", 20, "records per page (max 100)")
	auditListCmd.Flags().StringVar(&listSource, "source", "", "filter by source account")

	for _, cmd := range []*cobra.Command{trustlineCheckCmd, trustlineRefreshCmd, trustlinePromptCmd} {
		cmd.Flags().StringVar(&assetIssuer, "issuer", "", "asset issuer account (required)")
		cmd.MarkFlagRequired("issuer") //nolint:errcheck
	}
	trustlineCheckCmd.Flags().StringVar(&assetCode, "code", "", "asset code (default: server's configured asset)")
	trustlinePromptCmd.Flags().StringVar(&assetCode, "code", "", "asset code (default: server's configured asset)")
	trustlinePromptCmd.Flags().StringVar(&promptWallet, "wallet", "", "wallet address to build the transaction for (required)")
	trustlinePromptCmd.MarkFlagRequired("wallet") //nolint:errcheck
}
