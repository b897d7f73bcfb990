// Part of the codetree CLI - regenerates, validates and inspects hierarchy
// codes over a JSON item store.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codetree-io/codetree/audit"
	"github.com/codetree-io/codetree/hierarchy"
	"github.com/codetree-io/codetree/store"
)

var (
	cfgFile   string
	storePath string
	orgTable  string
	auditLog  string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "codetree",
	Short: "Hierarchy code engine CLI",
	Long:  "Codetree assigns stable, human-readable positional codes to content items across the function and organization hierarchies.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogging(viper.GetString("log_level"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default codetree.yaml in cwd)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "path to item store file (required)")
	rootCmd.PersistentFlags().StringVar(&orgTable, "org-table", "", "path to curated organization code table (yaml)")
	rootCmd.PersistentFlags().StringVar(&auditLog, "audit-log", "", "path to append-only audit log (jsonl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("org_table", rootCmd.PersistentFlags().Lookup("org-table"))
	_ = viper.BindPFlag("audit_log", rootCmd.PersistentFlags().Lookup("audit-log"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(conflictsCmd)
}

// initConfig wires viper: explicit config file, else codetree.yaml in the
// working directory, with CODETREE_* environment overrides.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("codetree")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("CODETREE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); cfgFile == "" && (notFound || os.IsNotExist(err)) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// loadEngine builds the store, resolver and engine from the effective
// configuration.
func loadEngine() (*hierarchy.Engine, *store.JSONStore, error) {
	path := viper.GetString("store")
	if path == "" {
		return nil, nil, fmt.Errorf("store path is required (--store or CODETREE_STORE)")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid store path: %w", err)
	}

	itemStore, err := store.OpenJSON(absPath)
	if err != nil {
		return nil, nil, err
	}

	resolver := hierarchy.NewOrgCodeResolver()
	if tablePath := viper.GetString("org_table"); tablePath != "" {
		if err := resolver.LoadTable(tablePath); err != nil {
			return nil, nil, err
		}
	}

	opts := []hierarchy.EngineOption{
		hierarchy.WithOrgResolver(resolver),
		hierarchy.WithLogger(slog.Default()),
	}
	if logPath := viper.GetString("audit_log"); logPath != "" {
		sink, err := audit.OpenFileSink(logPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, hierarchy.WithAuditSink(sink))
	}

	return hierarchy.NewEngine(itemStore, opts...), itemStore, nil
}
