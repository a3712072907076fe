package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dict-cli/dict/internal/cache"
	"github.com/dict-cli/dict/internal/config"
	"github.com/dict-cli/dict/internal/dictapi"
	"github.com/dict-cli/dict/internal/logging"
	"github.com/dict-cli/dict/internal/lookup"
	"github.com/dict-cli/dict/internal/render"
	"github.com/dict-cli/dict/internal/server"
	"github.com/dict-cli/dict/internal/server/routes"
	"github.com/dict-cli/dict/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const cachedNotice = "(cached reply; use -f, --force to refresh)"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	word        string
	force       bool
	list        bool
	remove      bool
	skip        bool
	serve       bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
	getenv           = os.Getenv
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute 解析参数并运行；-h/--help 在任何其他模式之前处理。
func execute(args []string) int {
	opts, ok, err := parseCLIFlags(args)
	if err != nil {
		fmt.Fprintf(stdErr, "dict: %v\n", err)
		printUsage(stdErr)
		return exitUsage
	}
	if !ok {
		return exitOK
	}
	return run(opts)
}

// newRootCommand 声明全部 CLI 标志；RunE 只负责把解析结果写入 opts。
func newRootCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dict [OPTION] [WORD]",
		Short:         "Fetch the dictionary entry for WORD from dictionaryapi.dev",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.word = args[0]
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&opts.force, "force", "f", false, "always make a web request, do not use the cache")
	flags.BoolP("help", "h", false, "show this help message")
	flags.BoolVarP(&opts.list, "list", "l", false, "list the entries currently in the cache")
	flags.BoolVarP(&opts.remove, "remove", "r", false, "remove WORD from the cache")
	flags.BoolVarP(&opts.skip, "skip", "s", false, "do not save this definition to the disk cache")
	flags.StringVar(&opts.configPath, "config", "", "config file (default $DICT_CONFIG or ~/.config/dict/config.toml)")
	flags.BoolVar(&opts.serve, "serve", false, "serve lookups over HTTP on 127.0.0.1")
	flags.BoolVar(&opts.showVersion, "version", false, "print version information")

	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		writeUsage(c.OutOrStdout(), c)
	})
	return cmd
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
// ok 为 false 表示已输出帮助信息，无需继续执行。
func parseCLIFlags(args []string) (opts cliOptions, ok bool, err error) {
	if args == nil {
		args = []string{}
	}
	ran := false
	cmd := newRootCommand(&opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)
	cmd.PostRun = func(*cobra.Command, []string) { ran = true }

	if err := cmd.Execute(); err != nil {
		return cliOptions{}, false, err
	}
	if !ran {
		return cliOptions{}, false, nil
	}

	opts.configPath = resolveConfigPath(opts.configPath)
	return opts, true, nil
}

// resolveConfigPath 依次使用 --config、DICT_CONFIG 与默认位置（仅当文件存在时）。
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := getenv("DICT_CONFIG"); env != "" {
		return env
	}
	if path := config.DefaultConfigPath(getenv); path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func printUsage(w io.Writer) {
	writeUsage(w, newRootCommand(&cliOptions{}))
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintf(w, "Usage: dict [OPTION] [WORD]\n%s\n\nOptions:\n", cmd.Short)
	fmt.Fprint(w, cmd.Flags().FlagUsages())
	fmt.Fprintln(w)
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return exitOK
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "dict: failed to load config: %v\n", err)
		return exitFailure
	}

	logger, err := logging.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stdErr, "dict: failed to initialize logger: %v\n", err)
		return exitFailure
	}
	if cfg.Log.LogFilePath == "" {
		logger.SetOutput(stdErr)
	}

	if !opts.serve && !opts.list && opts.word == "" {
		logger.Error("Invalid call to dict: Word required")
		printUsage(stdOut)
		return exitFailure
	}

	cacheDir := cfg.ResolveCacheDir(getenv)
	if cacheDir == "" {
		logger.WithFields(logging.BaseFields("startup", opts.configPath)).Warn("HOME is not set; the cache is disabled")
	}
	store, err := cache.NewStore(cache.Options{
		Root:         cacheDir,
		Capacity:     cfg.Cache.CacheMax,
		MaxPathLen:   cfg.Cache.MaxPathLen,
		ColumnWidth:  cfg.Cache.ListColumnWidth,
		ReadCapacity: int(cfg.Upstream.MaxPayloadBytes),
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "dict: failed to initialize cache: %v\n", err)
		return exitFailure
	}

	client := dictapi.NewClient(dictapi.Options{
		Upstream:  cfg.Upstream,
		UserAgent: version.UserAgent(),
		Logger:    logger,
	})
	svc := lookup.NewService(store, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.serve:
		return serve(ctx, cfg, svc, logger, opts.configPath)
	case opts.list:
		return listCache(ctx, svc)
	case opts.remove:
		return removeWord(ctx, svc, logger, opts.word)
	default:
		return lookupWord(ctx, cfg, svc, logger, opts)
	}
}

func listCache(ctx context.Context, svc *lookup.Service) int {
	if _, err := svc.List(ctx, stdOut); err != nil {
		return exitFailure
	}
	return exitOK
}

func removeWord(ctx context.Context, svc *lookup.Service, logger *logrus.Logger, word string) int {
	status, err := svc.Remove(ctx, word)
	switch status {
	case cache.Removed:
		return exitOK
	case cache.RemoveNotFound:
		logger.Errorf("Word %s not found in cache", word)
		return exitOK
	default:
		if err != nil && !errors.Is(err, cache.ErrDisabled) {
			logger.WithError(err).Errorf("Failed to remove %s from cache", word)
		}
		return exitFailure
	}
}

func lookupWord(ctx context.Context, cfg *config.Config, svc *lookup.Service, logger *logrus.Logger, opts cliOptions) int {
	res, err := svc.Lookup(ctx, opts.word, lookup.Options{Force: opts.force, Skip: opts.skip})
	if err != nil {
		var noDef *lookup.NoDefinitionError
		if errors.As(err, &noDef) {
			logger.Errorf("Could not look up word %q", opts.word)
			if noDef.Title != "" {
				logger.Error(noDef.Title)
			}
			if noDef.Message != "" {
				logger.Error(noDef.Message)
			}
			if noDef.Title == "" && noDef.Message == "" {
				logger.Error("No lexical information available")
			}
			return exitFailure
		}
		logger.WithError(err).Errorf("Could not look up word %q", opts.word)
		return exitFailure
	}

	mode, err := render.ParseColorMode(cfg.Output.Color)
	if err != nil {
		mode = render.ColorAuto
	}
	if err := render.New(stdOut, mode).Render(res.Payload); err != nil {
		logger.WithError(err).Errorf("Could not display word %q", opts.word)
		return exitFailure
	}
	if res.CacheHit {
		fmt.Fprintln(stdOut, cachedNotice)
	}
	logger.WithFields(logging.LookupFields(opts.word, res.CacheHit, opts.force, opts.skip)).
		WithField("stored", res.Stored).Debug("lookup_done")
	return exitOK
}

func serve(ctx context.Context, cfg *config.Config, svc *lookup.Service, logger *logrus.Logger, configPath string) int {
	port := cfg.Output.ListenPort
	app, err := server.NewApp(server.AppOptions{Logger: logger, ListenPort: port})
	if err != nil {
		fmt.Fprintf(stdErr, "dict: %v\n", err)
		return exitFailure
	}
	routes.RegisterEntryRoutes(app, svc, logger)
	routes.RegisterCacheRoutes(app, svc, logger)
	routes.RegisterDiagnosticsRoutes(app, svc)

	addr := server.ListenAddr(port)
	fields := logging.BaseFields("listen", configPath)
	fields["addr"] = addr
	fields["cache_enabled"] = svc.CacheEnabled()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("http service starting")
	fmt.Fprintf(stdErr, "dict: serving on http://%s\n", addr)

	if err := app.Listen(addr, fiber.ListenConfig{
		DisableStartupMessage: true,
		GracefulContext:       ctx,
	}); err != nil {
		fmt.Fprintf(stdErr, "dict: http service failed: %v\n", err)
		return exitFailure
	}
	return exitOK
}
