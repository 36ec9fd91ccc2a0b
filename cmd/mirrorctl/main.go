package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/sirupsen/logrus"

	"github.com/andreyvit/mirror"
	"github.com/andreyvit/mirror/internal/config"
	"github.com/andreyvit/mirror/store"
)

const Version = "0.1.0"

const usage = `Inspect and edit mirrored records.

Usage:
    mirrorctl get <path> [--config=<file>]
    mirrorctl set <path> <json> [--config=<file>]
    mirrorctl create <collection> <field=value>... [--config=<file>] [--mine]
    mirrorctl update <collection> <id> <field=value>... [--config=<file>] [--mine]
    mirrorctl destroy <collection> <id> [--config=<file>] [--mine]
    mirrorctl lookup <collection> <field> <value> [--config=<file>]
    mirrorctl watch <collection> <id> [--config=<file>] [--mine]
    mirrorctl dump [--config=<file>]
    mirrorctl stats [--config=<file>]
    mirrorctl -h | --help
    mirrorctl --version

Field values are parsed as JSON when possible and taken as strings otherwise;
an empty value (field=) deletes the field.

Options:
    -h --help          Show this screen.
    --version          Show version.
    --config=<file>    YAML config file [default: mirror.yaml].
    --mine             Act as the owner of the record (overrides the config).`

var log = logrus.New()

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}

	cfgPath, _ := opts.String("--config")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && cfgPath == "mirror.yaml" {
		cfgPath = ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if mine, _ := opts.Bool("--mine"); mine {
		cfg.Mine = true
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatal(err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := cfg.OpenStore(logger)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, db: db, logger: logger, opts: opts}
	if err := app.run(ctx); err != nil {
		log.WithFields(logrus.Fields{
			"backend": cfg.Backend,
			"path":    cfg.Path,
		}).Error(err)
		db.Close()
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	db     *store.DB
	logger *slog.Logger
	opts   docopt.Opts
}

func (a *app) run(ctx context.Context) error {
	switch {
	case a.cmd("get"):
		return a.get(ctx)
	case a.cmd("set"):
		return a.set(ctx)
	case a.cmd("create"):
		return a.create(ctx)
	case a.cmd("update"):
		return a.update(ctx)
	case a.cmd("destroy"):
		return a.destroy(ctx)
	case a.cmd("lookup"):
		return a.lookup(ctx)
	case a.cmd("watch"):
		return a.watch(ctx)
	case a.cmd("dump"):
		return a.dump()
	case a.cmd("stats"):
		return a.stats()
	}
	return nil
}

func (a *app) cmd(name string) bool {
	v, _ := a.opts.Bool(name)
	return v
}

func (a *app) arg(name string) string {
	v, _ := a.opts.String(name)
	return v
}

func (a *app) model(collection, id string) (*mirror.Model, error) {
	typ, err := a.cfg.ModelType(collection)
	if err != nil {
		return nil, err
	}
	return mirror.New(a.db.Ref(collection).Child(id), typ, nil, a.modelOptions())
}

func (a *app) modelOptions() mirror.Options {
	return mirror.Options{Mine: a.cfg.Mine, Logger: a.logger, Verbose: a.cfg.Verbose}
}

func (a *app) get(ctx context.Context) error {
	snap, err := a.db.Ref(a.arg("<path>")).Once(ctx, store.EventValue)
	if err != nil {
		return err
	}
	return printJSON(snap.Val())
}

func (a *app) set(ctx context.Context) error {
	var v any
	if err := json.Unmarshal([]byte(a.arg("<json>")), &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return a.db.Ref(a.arg("<path>")).Set(ctx, v)
}

func (a *app) create(ctx context.Context) error {
	collection := a.arg("<collection>")
	typ, err := a.cfg.ModelType(collection)
	if err != nil {
		return err
	}
	fields, err := parseFields(a.opts["<field=value>"])
	if err != nil {
		return err
	}
	m, err := typ.Create(a.db.Ref(collection), fields, a.modelOptions())
	if err != nil {
		return err
	}
	if err := m.Update(ctx); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"collection": collection, "id": m.ID()}).Info("created")
	fmt.Println(m.ID())
	return nil
}

func (a *app) update(ctx context.Context) error {
	m, err := a.model(a.arg("<collection>"), a.arg("<id>"))
	if err != nil {
		return err
	}
	fields, err := parseFields(a.opts["<field=value>"])
	if err != nil {
		return err
	}
	for k, v := range fields {
		if err := m.Set(k, v); err != nil {
			return err
		}
	}
	return m.Update(ctx)
}

func (a *app) destroy(ctx context.Context) error {
	m, err := a.model(a.arg("<collection>"), a.arg("<id>"))
	if err != nil {
		return err
	}
	return m.Destroy(ctx)
}

func (a *app) lookup(ctx context.Context) error {
	collection := a.arg("<collection>")
	typ, err := a.cfg.ModelType(collection)
	if err != nil {
		return err
	}
	id, found, err := typ.Lookup(ctx, a.db.Ref(collection), a.arg("<field>"), parseValue(a.arg("<value>")))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no record with %s = %s", collection, a.arg("<field>"), a.arg("<value>"))
	}
	fmt.Println(id)
	return nil
}

func (a *app) watch(ctx context.Context) error {
	m, err := a.model(a.arg("<collection>"), a.arg("<id>"))
	if err != nil {
		return err
	}
	m.Subscribe(func(ev mirror.Event) {
		switch ev.Kind {
		case mirror.EventUpdate:
			log.WithFields(logrus.Fields{"model": m.String(), "status": m.Status().String()}).Debug("update")
			if m.Status().Pending() {
				return
			}
			if m.NotFound() {
				fmt.Println("null")
				return
			}
			printJSON(m.Data())
		case mirror.EventError:
			log.WithFields(logrus.Fields{"model": m.String()}).Warn(ev.Err)
		}
	})
	m.Watch()
	defer m.Unwatch()
	<-ctx.Done()
	return nil
}

func (a *app) dump() error {
	s, err := a.db.Dump()
	if err != nil {
		return err
	}
	fmt.Print(s)
	return nil
}

func (a *app) stats() error {
	st, err := a.db.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("leaves:    %d\n", st.Leaves)
	fmt.Printf("data size: %d (avg %d per leaf)\n", st.DataSize, st.AvgLeafSize())
	return nil
}

func parseFields(raw any) (map[string]any, error) {
	pairs, _ := raw.([]string)
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field assignment %q, wanted field=value", pair)
		}
		if v == "" {
			fields[k] = nil
		} else {
			fields[k] = parseValue(v)
		}
	}
	return fields, nil
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
