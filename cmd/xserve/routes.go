package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xserve/pkg/server/xhttpd"
	"github.com/omeyang/xserve/pkg/util/xjson"
)

func routesCommand() *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "打印页面目录生成的路由表",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagJSON, Usage: "以 JSON 输出"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			routes, err := xhttpd.BuildRoutes(cfg.Server.Pages)
			if err != nil {
				return &usageError{err: err}
			}
			out := cmd.Root().Writer

			if cmd.Bool(flagJSON) {
				m := make(map[string]string, routes.Len())
				for _, p := range routes.Paths() {
					m[p] = routes.File(p)
				}
				return xjson.Encode(out, struct {
					Routes   map[string]string `json:"routes"`
					NotFound string            `json:"not_found"`
				}{m, routes.NotFound()})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range routes.Paths() {
				fmt.Fprintf(tw, "%s\t%s\n", p, routes.File(p))
			}
			if nf := routes.NotFound(); nf != "" {
				fmt.Fprintf(tw, "(404)\t%s\n", nf)
			}
			return tw.Flush()
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "打印合并后的生效配置",
		Flags: serveFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return xjson.Encode(cmd.Root().Writer, cfg)
		},
	}
}
