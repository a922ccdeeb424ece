package sql

import (
	"context"
	"flag"
	"io/fs"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"

	dbpkg "github.com/sig-0/fxpoints/storage/sql"
)

// sqlCfg wraps the sql configuration
type sqlCfg struct {
	// schemaDir is the migration directory on disk.
	// The migrations embedded in the binary are used when empty
	schemaDir string
}

// NewSQLCmd creates the sql subcommand
func NewSQLCmd() *ffcli.Command {
	cfg := &sqlCfg{}

	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	cfg.RegisterFlags(fs)

	cmd := &ffcli.Command{
		Name:       "sql",
		ShortUsage: "sql <subcommand> [flags] [<arg>...]",
		LongHelp:   "Manages the fxpoints Postgres quote archive",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	// Add the subcommands
	cmd.Subcommands = []*ffcli.Command{
		newMigrateCmd(cfg),
	}

	return cmd
}

func (c *sqlCfg) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.schemaDir,
		"schema-dir",
		"",
		"the directory holding the .sql migrations (defaults to the embedded ones)",
	)
}

// migrations returns the migration file system
func (c *sqlCfg) migrations() (fs.FS, error) {
	if c.schemaDir != "" {
		return os.DirFS(c.schemaDir), nil
	}

	return fs.Sub(dbpkg.SchemaFS, "schema")
}
