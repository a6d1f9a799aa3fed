package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/angelmondragon/printshop-backend/internal/bootstrap"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/migrate"
)

const serviceName = "migrate"

func main() {
	cmd := flag.String("cmd", "up", "migration command: "+strings.Join(append(slices.Clone(migrate.Commands), "version", "create", "validate"), "|"))
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	var target int64
	switch {
	case *cmd == "version":
		v, err := migrate.ParseVersion(*version)
		if err != nil {
			fail("-version: %v", err)
		}
		target = v
	case !slices.Contains(migrate.Commands, *cmd):
		fail("unknown -cmd value: %s", *cmd)
	}

	rt := bootstrap.Start(serviceName)
	defer rt.Close()
	ctx, stop := rt.SignalContext()
	defer stop()
	ctx = rt.Logger.WithFields(ctx, map[string]any{"cmd": *cmd, "dir": *dir})

	// Opened directly so dev auto-migrate does not run ahead of the command.
	dbClient, err := db.New(ctx, rt.Config.DB, rt.Logger)
	rt.Must("database", err)
	rt.OnShutdown("database", dbClient.Close)
	sqlDB, err := dbClient.DB().DB()
	rt.Must("sql database", err)

	runner, err := migrate.NewRunner(sqlDB, rt.Config.DB.Driver, *dir, os.Stdout)
	rt.Must("migration runner", err)

	if *cmd == "version" {
		err = runner.MigrateTo(ctx, target)
	} else {
		err = runner.Run(ctx, *cmd)
	}
	rt.Must("migration "+*cmd, err)
	rt.Logger.Info(ctx, "migrate finished")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
