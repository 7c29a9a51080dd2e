package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"ptvdata/data/sqlstore"
	"ptvdata/domain/history"
	"ptvdata/domain/lifecycle"
	"ptvdata/domain/model"
	"ptvdata/domain/notification"
	"ptvdata/domain/repository"
	"ptvdata/logging"
	"ptvdata/validation"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKind(s string) (model.EntityKind, error) {
	kind, ok := model.ParseEntityKind(s)
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return kind, nil
}

func parseOrg(s string) (uuid.NullUUID, error) {
	if s == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("organization: %w", err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func runMigrate(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sqlstore.Migrate(ctx, a.db); err != nil {
		return err
	}
	a.logger.Info(ctx, "schema migrated", logging.String("dialect", a.db.GetDialectName()))
	return nil
}

func runSweep(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	once := fs.Bool("once", false, "sweep once and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sweeper := notification.NewSweeper(a.provider, a.cfg.Notification.Retention(), a.cfg.Notification.SweepInterval, a.metrics)
	if !*once {
		return sweeper.Run(ctx)
	}
	n, err := sweeper.SweepOnce(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]int64{"deleted": n})
}

func runNumbers(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("numbers", flag.ContinueOnError)
	orgFlag := fs.String("org", "", "organization id filter")
	publish := fs.Bool("publish", false, "publish the digest to NATS")
	if err := fs.Parse(args); err != nil {
		return err
	}
	org, err := parseOrg(*orgFlag)
	if err != nil {
		return err
	}
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	svc := notification.NewService(a.provider, a.refs, pub, a.metrics)

	var numbers notification.Numbers
	if *publish {
		numbers, err = svc.PublishDigest(ctx, org)
	} else {
		numbers, err = svc.GetNotificationsNumbers(ctx, org)
	}
	if err != nil {
		return err
	}
	return writeJSON(out, numbers)
}

func runNotifications(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	kindFlag := fs.String("kind", string(notification.KindContentUpdated), "notification kind")
	orgFlag := fs.String("org", "", "organization id filter")
	page := fs.Int("page", 0, "page number, starting at 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, ok := notification.ParseKind(*kindFlag)
	if !ok {
		return fmt.Errorf("unknown notification kind %q", *kindFlag)
	}
	org, err := parseOrg(*orgFlag)
	if err != nil {
		return err
	}
	svc := notification.NewService(a.provider, a.refs, nil, a.metrics)
	res, err := svc.List(ctx, kind, notification.Search{PageNumber: *page, OrganizationID: org})
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

// historyFlags 两种历史命令共用的参数
func historyFlags(name string, args []string) (model.EntityKind, history.Search, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	kindFlag := fs.String("kind", "", "entity kind")
	idFlag := fs.String("id", "", "versioned entity id")
	page := fs.Int("page", 0, "page number, starting at 0")
	if err := fs.Parse(args); err != nil {
		return "", history.Search{}, err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return "", history.Search{}, err
	}
	id, err := uuid.Parse(*idFlag)
	if err != nil {
		return "", history.Search{}, fmt.Errorf("id: %w", err)
	}
	return kind, history.Search{ID: id, PageNumber: *page}, nil
}

func runEntityHistory(ctx context.Context, a *app, args []string, out io.Writer) error {
	kind, search, err := historyFlags("entity-history", args)
	if err != nil {
		return err
	}
	page, err := history.NewService(a.provider, a.refs, a.metrics).GetEntityHistory(ctx, kind, search)
	if err != nil {
		return err
	}
	return writeJSON(out, page)
}

func runConnectionHistory(ctx context.Context, a *app, args []string, out io.Writer) error {
	kind, search, err := historyFlags("connection-history", args)
	if err != nil {
		return err
	}
	page, err := history.NewService(a.provider, a.refs, a.metrics).GetConnectionHistory(ctx, kind, search)
	if err != nil {
		return err
	}
	return writeJSON(out, page)
}

func runTransition(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("transition", flag.ContinueOnError)
	op := fs.String("op", "", "publish|withdraw|delete|remove|restore")
	kindFlag := fs.String("kind", "", "entity kind")
	idFlag := fs.String("id", "", "versioned entity id")
	actor := fs.String("actor", "ptvdata-cli", "recorded as the modifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(*idFlag)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	desc, _ := lifecycle.DescriptorFor(kind)
	svc := lifecycle.NewService(desc, a.provider, lifecycle.AggregateLoader(kind), lifecycle.Options{
		Validator: validation.NewPublishValidator(),
		Locker:    a.locker(),
		Metrics:   a.metrics,
	})

	var res lifecycle.Result[*model.Aggregate]
	switch *op {
	case "publish":
		res, err = svc.Save(ctx, lifecycle.SaveRequest{
			ID:     id,
			Action: lifecycle.ActionSaveAndPublish,
			Actor:  *actor,
			Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
				return id, nil
			},
		})
	case "withdraw":
		res, err = svc.Withdraw(ctx, id, *actor)
	case "delete":
		res, err = svc.Delete(ctx, id, *actor)
	case "remove":
		res, err = svc.Remove(ctx, id, *actor)
	case "restore":
		res, err = svc.Restore(ctx, id, *actor)
	default:
		return fmt.Errorf("unknown transition %q", *op)
	}
	if err != nil {
		return err
	}
	summary := map[string]any{
		"id":               res.ID,
		"publishingStatus": res.Entity.PublishingStatus,
	}
	if v := res.Entity.Versioning; v != nil {
		summary["version"] = fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return writeJSON(out, summary)
}
