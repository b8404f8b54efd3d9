package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/store"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *app) migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	storage, err := openStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	status, err := storage.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Database %s is at schema version %s.\n", storage.Path(), status.CurrentVersion)
	return nil
}

func (a *app) status(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	storage, err := openStorage(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	status, err := storage.Status(ctx)
	if err != nil {
		return err
	}

	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(a.out, "Current version: %s\n", current)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, m := range status.AppliedMigrations {
		fmt.Fprintf(tw, "applied\t%s\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range status.PendingMigrations {
		fmt.Fprintf(tw, "pending\t%s\t%s\n", m.Version, m.Description)
	}
	return tw.Flush()
}

func (a *app) addUser(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.Args().First())
	if username == "" {
		return errors.New("usage: scheduler user add <username>")
	}

	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, "Password: ")
	password, err := a.readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, "Confirm password: ")
	confirmation, err := a.readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	if password != confirmation {
		return errPasswordMismatch
	}

	storage, err := openStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	records := store.New(storage.Users, storage.Customers, storage.Appointments, nil, logger)
	user, err := records.AddUser(ctx, username, password, application.DefaultHashParams)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created consultant %s (%s).\n", user.Username, user.ID)
	return nil
}

func (a *app) addCustomer(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	storage, err := openStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	records := store.New(storage.Users, storage.Customers, storage.Appointments, nil, logger)
	customer, err := records.AddCustomer(ctx, application.Customer{
		Name:       cmd.String("name"),
		Address:    cmd.String("address"),
		City:       cmd.String("city"),
		PostalCode: cmd.String("postal-code"),
		Country:    cmd.String("country"),
		Phone:      cmd.String("phone"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created customer %s (%s).\n", customer.Name, customer.ID)
	return nil
}

func (a *app) listLogins(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	storage, err := openStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	entries, err := newAuditLog(cfg, storage).Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No logins recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s\t%s\n", e.At.UTC().Format(time.RFC3339), e.Username)
	}
	return nil
}
