package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/config"
	"github.com/vedsharma/momentscli/internal/format"
	"github.com/vedsharma/momentscli/internal/logger"
)

var (
	cfgFile     string
	apiKeyFlag  string
	catalogFlag string
	debug       bool

	cfg       *config.Config
	endpoints *catalog.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "momentscli",
	Short: "Explore and test the MomentScience APIs",
	Long: `momentscli builds, previews and runs requests against the MomentScience APIs.

Every request can be printed as an equivalent curl command before it is sent.

Examples:
  momentscli endpoints
  momentscli curl moments --api-key abc123
  momentscli run perkswall --set country=CA --query debug=true
  momentscli payload catalog > payload.json
  momentscli run catalog --payload @payload.json
  momentscli showcase --add 1,3
  momentscli serve`,
	PersistentPreRun:  setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logger.Sync() },
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.momentscli/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key (overrides "+config.EnvAPIKey+")")
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "YAML file replacing the built-in endpoint catalog")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug diagnostics to stderr")
}

// setup loads the configuration, the logger and the catalog. Flags win over
// the environment, which wins over the file.
func setup(cmd *cobra.Command, args []string) {
	path := cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			format.PrintError(fmt.Sprintf("Failed to locate config: %v", err))
			os.Exit(1)
		}
		path = p
	}

	c, err := config.Load(path)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load config: %v", err))
		os.Exit(1)
	}
	if apiKeyFlag != "" {
		c.APIKey = apiKeyFlag
	}
	if catalogFlag != "" {
		c.CatalogFile = catalogFlag
	}
	if debug {
		c.Log.Level = "debug"
	}
	cfg = c

	logger.Init(cfg.Logger())

	endpoints, err = loadCatalog(cfg.CatalogFile)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load catalog: %v", err))
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func mustEndpoint(id string) catalog.Endpoint {
	ep, err := endpoints.Get(id)
	if err != nil {
		format.PrintError(fmt.Sprintf("%v (see 'momentscli endpoints')", err))
		os.Exit(1)
	}
	return ep
}
