// xserve 是基于固定大小工作池的静态页面服务器。
//
// 用法:
//
//	xserve [全局选项] <命令> [命令选项]
//
// 命令:
//
//	serve    启动服务器（默认命令）
//	routes   打印页面目录生成的路由表
//	config   打印合并后的生效配置
//	version  打印版本信息
//
// 配置优先级由低到高：默认值、配置文件（--config）、环境变量、命令行参数。
// 监听地址与端口可由 XSERVE_ADDRESS、XSERVE_PORT 指定，默认 127.0.0.1:7879。
//
// 退出码:
//
//	0: 正常退出，包括收到 SIGINT/SIGTERM 后的优雅停止
//	1: 运行时错误（如端口绑定失败）
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xserve/pkg/lifecycle/xrun"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	app := &cli.Command{
		Name:      "xserve",
		Usage:     "基于工作池的静态页面服务器",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			routesCommand(),
			configCommand(),
			versionCommand(),
		},
		DefaultCommand: "serve",
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{err: err}
		},
		// 由 run 统一映射退出码，不让 cli 直接 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	// OnUsageError 不会被子命令继承
	for _, c := range app.Commands {
		c.OnUsageError = app.OnUsageError
	}
	return app
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(ctx, args)
	switch {
	case err == nil, errors.Is(err, xrun.ErrSignal):
		return 0
	case isUsageError(err):
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "打印版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "xserve %s\ncommit: %s\nbuilt: %s\ngo: %s\n",
				Version, GitCommit, BuildTime, runtime.Version())
			return err
		},
	}
}
