// pmctl 项目管理 API 的命令行客户端。
//
// 每次执行都用 --email/--password（或 PM_EMAIL/PM_PASSWORD）登录，
// 会话只保存在进程内存中。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"projecthub/config"
	"projecthub/internal/apiclient"
	"projecthub/internal/grouping"
	"projecthub/internal/model"
	"projecthub/internal/service"
	"projecthub/internal/session"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/logger"
	"projecthub/pkg/trace"
)

// options 全局参数
type options struct {
	apiURL   string
	email    string
	password string
	groupBy  string
	scope    string
	pattern  string
	jsonOut  bool
	verbose  bool
}

// cli 一次命令执行需要的依赖
type cli struct {
	opts   options
	cfg    *config.Config
	api    *apiclient.Client
	svc    *service.Services
	out    io.Writer
	logger *zap.Logger
}

var commands = map[string]func(c *cli, ctx context.Context) error{
	"login":         (*cli).login,
	"dashboard":     (*cli).dashboard,
	"member":        (*cli).member,
	"progress":      (*cli).progress,
	"notifications": (*cli).notifications,
	"watch":         (*cli).watch,
	"events":        (*cli).events,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.Default()

	var opts options
	flagSet := pflag.NewFlagSet("pmctl", pflag.ContinueOnError)
	flagSet.StringVar(&opts.apiURL, "api", cfg.API.BaseURL, "project API base URL")
	flagSet.StringVarP(&opts.email, "email", "e", os.Getenv("PM_EMAIL"), "login email (env PM_EMAIL)")
	flagSet.StringVarP(&opts.password, "password", "p", os.Getenv("PM_PASSWORD"), "login password (env PM_PASSWORD)")
	flagSet.StringVar(&opts.groupBy, "group-by", cfg.Dashboard.GroupBy, "member view grouping: title or id")
	flagSet.StringVar(&opts.scope, "scope", cfg.Poll.ActivityScope, "watch activity scope: all, project:<id>, task:<id>")
	flagSet.StringVar(&opts.pattern, "pattern", "#", "events: routing key pattern to subscribe to")
	flagSet.StringVar(&cfg.MQ.URL, "mq", cfg.MQ.URL, "events: RabbitMQ URL")
	flagSet.DurationVar(&cfg.Poll.Interval, "interval", cfg.Poll.Interval, "watch polling interval")
	flagSet.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of tables")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		printHelp(flagSet)
		return fmt.Errorf("unknown command %q", name)
	}

	log := logger.NewCLILogger(opts.verbose)
	defer log.Sync()

	c, err := newCLI(opts, cfg, os.Stdout, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 一次命令的所有上游调用共用一个 trace id
	return cmd(c, trace.Ensure(ctx))
}

func newCLI(opts options, cfg *config.Config, out io.Writer, log *zap.Logger) (*cli, error) {
	mode, err := grouping.ParseMode(opts.groupBy)
	if err != nil {
		return nil, err
	}

	api := apiclient.New(apiclient.Config{
		BaseURL: opts.apiURL,
		Timeout: cfg.API.Timeout,
		Breaker: circuitbreaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			Timeout:          cfg.Breaker.Timeout,
		},
	}, log)

	return &cli{
		opts: opts,
		cfg:  cfg,
		api:  api,
		svc: service.New(api, session.NewMemoryStore(), service.Options{
			SessionTTL: cfg.Session.TTL,
			GroupMode:  mode,
		}, log),
		out:    out,
		logger: log,
	}, nil
}

// signIn 用命令行凭据登录
func (c *cli) signIn(ctx context.Context) (*session.Session, error) {
	if c.opts.email == "" || c.opts.password == "" {
		return nil, errors.New("--email and --password (or PM_EMAIL / PM_PASSWORD) are required")
	}
	sess, err := c.svc.Auth.Login(ctx, c.credentials())
	if err != nil {
		return nil, describe(err)
	}
	return sess, nil
}

func (c *cli) credentials() model.Credentials {
	return model.Credentials{Email: c.opts.email, Password: c.opts.password}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `pmctl: terminal client for the project management API.

Usage:
  pmctl [flags] <command>

Commands:
  login          log in and show the current user
  dashboard      project manager dashboard with budget summaries
  member         tasks assigned to you, grouped by project
  progress       task, timeline and budget progress of every project
  notifications  notifications and unread count
  watch          poll notifications and activities, printing new items
  events         print events published by the watcher

Flags:
`)
	flagSet.PrintDefaults()
}
