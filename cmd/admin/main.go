// Command admin provides operator utilities for SkillShare: repairing
// counter drift and inspecting accounts.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"skillshare/internal/config"
	"skillshare/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// dbOpener connects to the database. Tests swap it for sqlite.
type dbOpener func() (*gorm.DB, *config.Config, error)

func openFromConfig() (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return db, cfg, nil
}

type adminApp struct {
	open     dbOpener
	asJSON   bool
	db       *gorm.DB
	attempts int
}

func (a *adminApp) connect() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, cfg, err := a.open()
	if err != nil {
		return nil, err
	}
	a.db = db
	a.attempts = cfg.CASMaxAttempts
	return db, nil
}

func (a *adminApp) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(open dbOpener) *cobra.Command {
	app := &adminApp{open: open}
	root := &cobra.Command{
		Use:           "skillshare-admin",
		Short:         "SkillShare operator utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&app.asJSON, "json", false, "Print machine-readable JSON")

	root.AddCommand(newReconcileCmd(app))
	root.AddCommand(newListUsersCmd(app))
	root.AddCommand(newShowUserCmd(app))
	return root
}

func main() {
	if err := newRootCmd(openFromConfig).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
