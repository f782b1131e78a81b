package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/any-cdn/internal/cache"
	"github.com/any-hub/any-cdn/internal/config"
	"github.com/any-hub/any-cdn/internal/logging"
	"github.com/any-hub/any-cdn/internal/npm"
	"github.com/any-hub/any-cdn/internal/proxy"
	"github.com/any-hub/any-cdn/internal/server"
	"github.com/any-hub/any-cdn/internal/server/routes"
	"github.com/any-hub/any-cdn/internal/version"
)

const configEnv = "ANY_CDN_CONFIG"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

// cliFlags 是 cobra 直接绑定的原始标志值。
type cliFlags struct {
	config      string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute 运行根命令并返回进程退出码：参数错误为 2，业务失败为 1。
func execute(args []string) int {
	code := 0
	var flags cliFlags
	cmd := newRootCommand(&flags, func(*cobra.Command, []string) error {
		code = run(resolveOptions(flags))
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdErr, "解析参数失败: %v\n", err)
		return 2
	}
	return code
}

// printVersion 输出版本、提交与构建所用的 Go 版本。
func printVersion() {
	fmt.Fprintf(stdOut, "%s %s/%s %s\n", version.Full(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func newRootCommand(flags *cliFlags, runE func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "any-cdn",
		Short: "A jsDelivr-like CDN mirror for npm packages",
		Long: `any-cdn serves files from npm packages over HTTP.

It resolves a version (exact, dist-tag or semver range) against registry
metadata, downloads and unpacks the tarball, then returns a single file or
an HTML directory listing. Metadata and unpacked packages are kept in an
in-memory cache.

Examples:
  any-cdn                          Start with defaults and environment overrides
  any-cdn --config any-cdn.toml    Start with a config file
  any-cdn --check-config           Validate configuration and exit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}
	cmd.Flags().StringVar(&flags.config, "config", "", "配置文件路径（可被 "+configEnv+" 提供，未指定时仅使用默认值与环境变量）")
	cmd.Flags().BoolVar(&flags.checkOnly, "check-config", false, "仅校验配置后退出")
	cmd.Flags().BoolVar(&flags.showVersion, "version", false, "显示版本信息")
	return cmd
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	var flags cliFlags
	cmd := newRootCommand(&flags, nil)
	if err := cmd.ParseFlags(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	return resolveOptions(flags), nil
}

func resolveOptions(flags cliFlags) cliOptions {
	path := os.Getenv(configEnv)
	if flags.config != "" {
		path = flags.config
	}
	return cliOptions{
		configPath:  path,
		checkOnly:   flags.checkOnly,
		showVersion: flags.showVersion,
	}
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["registry"] = cfg.Global.RegistryBase()
		fields["cache_backend"] = cfg.Cache.Backend
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	app, store, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}
	defer store.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["registry"] = cfg.Global.RegistryBase()
	fields["listen_port"] = cfg.Global.ListenPort
	fields["cache_backend"] = store.Backend()
	fields["coalesce_fetches"] = cfg.Cache.CoalesceFetches
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildApp 按 “缓存 → npm 客户端 → 代理 handler → Fiber app” 的顺序组装服务，
// 所有请求共享同一份缓存。调用方负责关闭返回的缓存。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, *npm.Store, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化缓存失败: %w", err)
	}

	client := npm.NewClient(server.NewUpstreamClient(cfg), store, logger, npm.ClientOptions{
		Registry:        cfg.Global.RegistryBase(),
		UserAgent:       version.UserAgent(),
		MaxTarballSize:  cfg.Global.MaxTarballSize,
		CoalesceFetches: cfg.Cache.CoalesceFetches,
	})

	app, err := server.NewApp(server.AppOptions{
		Logger: logger,
		Proxy:  proxy.NewHandler(client, logger),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	routes.RegisterCacheRoutes(app, store)
	return app, store, nil
}

func newStore(cfg *config.Config) (*npm.Store, error) {
	return cache.NewManager[*npm.Metadata, *npm.Contents](cache.Settings{
		Backend:      cfg.Cache.Backend,
		MetadataSize: cfg.Cache.MetadataSize,
		MetadataTTL:  cfg.Cache.MetadataTTL.DurationValue(),
		PackageSize:  cfg.Cache.PackageSize,
		PackageTTL:   cfg.Cache.PackageTTL.DurationValue(),
		MaxSizeMB:    cfg.Cache.MaxSizeMB,
	})
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenDone := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		shutdownOnSignal(ctx, listenDone, app, logger)
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	err := app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	close(listenDone)
	<-watcherDone
	return err
}

// shutdownOnSignal 收到中断信号后停止接收新连接，并给在途请求最多 10 秒完成；
// Listen 先行返回（如端口被占用）时直接退出。
func shutdownOnSignal(ctx context.Context, listenDone <-chan struct{}, app *fiber.App, logger *logrus.Logger) {
	select {
	case <-listenDone:
		return
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown_failed")
		return
	}
	logger.WithField("action", "shutdown").Info("Fiber 服务已停止")
}
