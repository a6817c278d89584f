// Command ise is the command-line front end for the ERS client: list
// categories, fetch and delete resources, query API versions, and run a
// local rate-limited proxy in front of an ISE node.
//
// Configuration comes from flags or ISE_* environment variables, e.g.
// ISE_HOST, ISE_USERNAME, ISE_PASSWORD.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nuuday/NDCiscoISE/pkg/ers"
	"github.com/nuuday/NDCiscoISE/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ise",
		Short:         "Concurrent, rate-limited client for the Cisco ISE ERS API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(viper.GetString("log-level")),
				Pretty: viper.GetBool("pretty"),
			})
		},
	}

	flags := root.PersistentFlags()
	flags.String("host", "", "ISE node address")
	flags.Int("port", 9060, "ERS port")
	flags.String("username", "", "ERS username")
	flags.String("password", "", "ERS password")
	flags.Bool("verify-tls", false, "verify the appliance TLS certificate")
	flags.Int("page-size", 100, "server page size for collection fetches")
	flags.String("redis", "", "Redis address for the collection cache (empty disables caching)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("pretty", false, "human-readable log output")

	viper.SetEnvPrefix("ISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newCategoriesCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newVersionCmd(),
		newServeCmd(),
	)
	return root
}

// newClient builds the ERS client from the resolved configuration.
func newClient() (*ers.Client, error) {
	cfg := ers.DefaultConfig(
		viper.GetString("host"),
		viper.GetString("username"),
		viper.GetString("password"),
	)
	if port := viper.GetInt("port"); port > 0 {
		cfg.Port = port
	}
	if pageSize := viper.GetInt("page-size"); pageSize > 0 {
		cfg.PageSize = pageSize
	}
	cfg.VerifyTLS = viper.GetBool("verify-tls")

	if addr := viper.GetString("redis"); addr != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: addr})
	}

	client, err := ers.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}
