// Package cli implements inquiryctl, a terminal front end over the same
// controllers the BFF serves.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"inquiry_desk/internal/inquiries/client"
	"inquiry_desk/internal/inquiries/console"
	"inquiry_desk/internal/inquiries/mutation"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/platform/config"
	"inquiry_desk/platform/logger"
)

// Backend is the marketplace API as the CLI uses it.
type Backend interface {
	console.Reader
	mutation.API
}

// Options wires the root command. Zero fields take production defaults.
type Options struct {
	LoadConfig func() (*config.Config, error)
	NewBackend func(cfg *config.Config, token string, log *logger.Logger) Backend
	Out        io.Writer
	Err        io.Writer
	Now        func() time.Time
}

func (o *Options) defaults() {
	if o.LoadConfig == nil {
		o.LoadConfig = config.Load
	}
	if o.NewBackend == nil {
		o.NewBackend = func(cfg *config.Config, token string, log *logger.Logger) Backend {
			return client.New(cfg, token, log)
		}
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// runtime is built once per invocation, after flags are parsed.
type runtime struct {
	coordinator *mutation.Coordinator
	list        *console.ListController
	detail      *console.DetailController
	printer     *printer
	asJSON      bool
	out         io.Writer
}

// stderrNotifier prints controller notices.
type stderrNotifier struct{ w io.Writer }

func (n stderrNotifier) Notify(level, message string) {
	fmt.Fprintf(n.w, "[%s] %s\n", level, message)
}

// NewRootCmd builds inquiryctl.
func NewRootCmd(opts Options) *cobra.Command {
	opts.defaults()

	var (
		token   string
		asJSON  bool
		verbose bool
		rt      *runtime
	)

	root := &cobra.Command{
		Use:           "inquiryctl",
		Short:         "Work the inquiry desk from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			if token == "" {
				token = cfg.APIToken
			}
			if token == "" {
				return fmt.Errorf("an access token is required (--token or API_TOKEN)")
			}

			log := logger.Nop()
			if verbose {
				log = logger.NewWithWriter(cfg.Env, opts.Err)
			}

			backend := opts.NewBackend(cfg, token, log)
			store := querycache.NewMemoryStore(0)
			cache := querycache.New(store, querycache.Options{StaleAfter: cfg.CacheStaleAfter, Now: opts.Now}, log)
			coordinator := mutation.New(backend, cache, nil, cfg, "cli", log)
			deps := console.Deps{
				Reader:   backend,
				Mutator:  coordinator,
				Cache:    cache,
				Notifier: stderrNotifier{w: opts.Err},
				Region:   cfg.PhoneRegion,
				Now:      opts.Now,
				Log:      log,
			}
			rt = &runtime{
				coordinator: coordinator,
				list:        console.NewListController(deps),
				detail:      console.NewDetailController(deps),
				printer:     newPrinter(opts.Out),
				asJSON:      asJSON,
				out:         opts.Out,
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&token, "token", "", "marketplace access token (defaults to API_TOKEN)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log API calls to stderr")

	get := func() *runtime { return rt }
	root.AddCommand(
		listCmd(get),
		statsCmd(get),
		showCmd(get),
		statusCmd(get),
		assignCmd(get),
		scheduleCmd(get),
		bulkAssignCmd(get),
		bulkUpdateCmd(get),
		exportCmd(get),
	)
	return root
}

// Execute runs inquiryctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
