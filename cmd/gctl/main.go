// Command gctl is a thin operator CLI against a running councild: it
// queries council status over HTTP and lists system councils directly
// from the configured store for inspection.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pantheonelite/gocouncil/config"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers/postgres"
	"github.com/pantheonelite/gocouncil/database/drivers/sqlite3"
	"github.com/pantheonelite/gocouncil/database/repository/council"
)

func main() {
	app := &cli.App{
		Name:                 "gctl",
		Usage:                "operator CLI for the council engine",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://localhost:8089", Usage: "councild's health/status HTTP address"},
			&cli.StringFlag{Name: "config", Value: "", Usage: "config file to load for direct-store commands"},
		},
		Commands: []*cli.Command{
			statusCommand,
			councilsCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var statusCommand = &cli.Command{
	Name:      "status",
	Usage:     "fetch a council's orchestration state from a running councild",
	ArgsUsage: "<council_id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("status requires exactly one council_id argument")
		}
		url := fmt.Sprintf("%s/councils/%s/status", c.String("addr"), c.Args().First())
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("gctl: request failed: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gctl: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gctl: councild returned %s: %s", resp.Status, body)
		}
		fmt.Println(string(body))
		return nil
	},
}

var councilsCommand = &cli.Command{
	Name:  "councils",
	Usage: "list system councils directly from the configured store",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return fmt.Errorf("gctl: load config: %w", err)
		}
		conn, err := connect(&cfg.Database)
		if err != nil {
			return fmt.Errorf("gctl: connect: %w", err)
		}
		defer conn.SQL.Close()

		tx, err := conn.SQL.Begin()
		if err != nil {
			return fmt.Errorf("gctl: begin: %w", err)
		}
		defer tx.Rollback()

		councils, err := council.New(tx).ListSystem()
		if err != nil {
			return fmt.Errorf("gctl: list councils: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, cl := range councils {
			if err := enc.Encode(cl); err != nil {
				return err
			}
		}
		return nil
	},
}

func connect(cfg *config.DatabaseConfig) (*database.Instance, error) {
	details, err := cfg.ConnectionDetails()
	if err != nil {
		return nil, err
	}
	dbCfg := &database.Config{Enabled: true, Driver: cfg.Driver, ConnectionDetails: details}
	if err := database.DB.SetConfig(dbCfg); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case database.DBPostgreSQL:
		return postgres.Connect(dbCfg)
	case database.DBSQLite3, database.DBSQLite:
		return sqlite3.Connect(dbCfg.Database())
	default:
		return nil, fmt.Errorf("gctl: unsupported database driver %q", cfg.Driver)
	}
}
