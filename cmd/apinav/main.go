package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/kennedn/apinav/internal/auth"
	"github.com/kennedn/apinav/internal/command"
	"github.com/kennedn/apinav/internal/config"
	"github.com/kennedn/apinav/internal/console"
	"github.com/kennedn/apinav/internal/gateway"
	"github.com/kennedn/apinav/internal/listing"
	"github.com/kennedn/apinav/internal/location"
	"github.com/kennedn/apinav/internal/logging"
	"github.com/kennedn/apinav/internal/navigator"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/kennedn/apinav/internal/rangemode"
	"github.com/kennedn/apinav/internal/tui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

var (
	startPath   string
	verboseFlag bool
	loginUser   string
	loginPass   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "apinav",
	Short:         "Browse and drive a hierarchical HTTP API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowse,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive browser",
	RunE:  runBrowse,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print console records")
	rootCmd.Flags().StringVar(&startPath, "path", "", `Start location, e.g. "#/lights/office"`)
	browseCmd.Flags().StringVar(&startPath, "path", "", `Start location, e.g. "#/lights/office"`)

	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPass, "password", "p", "", "Password")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(cacheCmd)
}

// services is everything a command needs, wired once per invocation.
type services struct {
	cfg        *config.Config
	log        zerolog.Logger
	auth       *auth.Store
	console    *console.Console
	gateway    *gateway.Gateway
	store      listing.Store
	cache      *listing.Cache
	controller *navigator.Controller
	dispatcher *command.Dispatcher
	closers    []func() error
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// loadServices builds the component graph. logFallback receives log output
// when no log file is configured.
func loadServices(logFallback io.Writer) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	w, closeLog, err := logging.Open(cfg.Log.File, logFallback)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	s := &services{cfg: cfg, closers: []func() error{closeLog}}
	s.log = logging.New(cfg.Log.Level, w)

	s.auth, err = auth.Load(cfg.Auth.Path)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	s.console = console.New(s.log)

	s.gateway = gateway.New(gateway.Config{
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
		RetryMax: cfg.RetryMax,
	}, s.auth,
		gateway.WithLogger(s.log),
		gateway.WithAuthFaultHandler(func(f gateway.Fault) {
			s.auth.RequirePrompt()
			s.console.Record(f.Label(), f.Summary())
		}),
		gateway.WithNetworkErrorHandler(func(label string, err error) {
			s.console.Record(label, err.Error())
		}),
	)

	s.store, err = openStore(cfg.Cache)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, s.store.Close)

	s.cache = listing.New(s.store, s.log)
	s.controller = navigator.New(s.cache, s.gateway, location.NewHistory(), s.log)
	s.dispatcher = command.NewDispatcher(s.gateway, s.console, s.log)
	return s, nil
}

func openStore(cfg config.CacheConfig) (listing.Store, error) {
	switch cfg.Backend {
	case "badger":
		dir := cfg.Path
		if dir == "" {
			dir = listing.DefaultBadgerDir()
		}
		return listing.OpenBadgerStore(dir, cfg.Key)
	default:
		return listing.NewFileStore(cfg.Path), nil
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	s, err := loadServices(io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext()
	defer cancel()
	go s.controller.WatchCredentials(ctx, s.auth.Subscribe())

	app := tui.New(tui.Deps{
		Controller: s.controller,
		Dispatcher: s.dispatcher,
		Console:    s.console,
		Auth:       s.auth,
		Cache:      s.cache,
		BaseURL:    s.gateway.BaseURL(),
	})
	token := startPath
	if token != "" {
		token = parsePathArg(token).Location()
	}
	return app.Run(ctx, token)
}

// parsePathArg accepts "a/b", "/a/b" and "#/a/b".
func parsePathArg(arg string) navpath.Path {
	arg = strings.TrimPrefix(arg, "#")
	if !strings.HasPrefix(arg, "/") {
		arg = "/" + arg
	}
	return navpath.Decode(arg)
}

func printConsole(c *console.Console) {
	for _, e := range c.Entries() {
		fmt.Fprintf(os.Stderr, "%s\n%s\n\n", e.Label, e.Body)
	}
}

var lsCmd = &cobra.Command{
	Use:   "ls [path...]",
	Short: "List a path and classify its children",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices(os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := signalContext()
		defer cancel()

		if len(args) == 0 {
			args = []string{"/"}
		}
		for i, arg := range args {
			if i > 0 {
				fmt.Println()
			}
			if err := lsAction(ctx, s, parsePathArg(arg), len(args) > 1); err != nil {
				if verboseFlag {
					printConsole(s.console)
				}
				if s.auth.PromptRequired() {
					return fmt.Errorf("%w (run apinav login)", err)
				}
				return err
			}
		}
		if verboseFlag {
			printConsole(s.console)
		}
		return nil
	},
}

func lsAction(ctx context.Context, s *services, p navpath.Path, header bool) error {
	key := navpath.Encode(p)
	items, err := s.cache.FetchOrGetLogged(ctx, p, s.gateway, s.console, s.gateway.URL(key))
	if err != nil {
		return fmt.Errorf("error loading %s: %w", key, err)
	}
	if err := s.controller.NavigateTo(ctx, p, items, true); err != nil {
		return err
	}
	st := s.controller.State()

	if header {
		fmt.Printf("%s:\n", key)
	}
	if st.Range.IsRange {
		fmt.Printf(" range %d..%d\n", rangemode.Min, rangemode.Max)
		for _, extra := range st.Range.Extras {
			fmt.Printf(" - %s\n", extra)
		}
		return nil
	}
	for _, name := range st.Items {
		child, known := st.Children[name]
		mark := " "
		switch {
		case !known || child.List == nil:
			mark = "?"
		case child.HasChildren:
			mark = "●"
		}
		fmt.Printf(" %s %s\n", mark, name)
	}
	return nil
}

var execCmd = &cobra.Command{
	Use:   "exec <path> <code> [value]",
	Short: "Send a code (and optional value) to a path",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices(os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := signalContext()
		defer cancel()

		value := ""
		if len(args) == 3 {
			value = args[2]
		}
		s.dispatcher.Execute(ctx, parsePathArg(args[0]), args[1], value)

		e, ok := s.console.Last()
		if !ok {
			return nil
		}
		fmt.Println(e.Label)
		fmt.Println(e.Body)
		if s.auth.PromptRequired() {
			return fmt.Errorf("authentication required (run apinav login)")
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := auth.Load(cfg.Auth.Path)
		if err != nil {
			return err
		}
		if loginUser == "" {
			return fmt.Errorf("--user is required")
		}
		password := loginPass
		if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stderr, "Password: ")
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			password = string(b)
		}
		if err := store.Set(loginUser, password); err != nil {
			return err
		}
		fmt.Println("Credentials saved.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := auth.Load(cfg.Auth.Path)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Credentials cleared.")
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the listing cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices(os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()
		n := s.cache.Len()
		if err := s.cache.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %d cached listings.\n", n)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print cached listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices(os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		snap := s.cache.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}
		for _, k := range keys {
			fmt.Printf("%-32s %s\n", k, strings.Join(snap[k], ", "))
		}
		return nil
	},
}
