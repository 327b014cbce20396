package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"

	"pyfer/pkg/lsp"
	"pyfer/pkg/pyfer"
	"pyfer/pkg/utils"
)

var version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			var engErr *pyfer.EngineError
			if err, ok := r.(error); ok && errors.As(err, &engErr) {
				msg := engErr.Error()
				if msg == "" {
					msg += string(debug.Stack())
				}
				_, _ = fmt.Fprintln(os.Stderr, msg)
				os.Exit(1)
			}
			panic(r)
		}
	}()
	cmd := &cli.Command{
		Name:    "pyfer",
		Usage:   "best-effort type inference for a Python dialect",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:    "check",
				Aliases: []string{"c"},
				Usage:   "analyze files and print diagnostics",
				Flags:   analysisFlags(),
				Action:  checkAction,
			},
			{
				Name:   "hover",
				Usage:  "print the inferred type of every named span in a file",
				Flags:  analysisFlags(),
				Action: hoverAction,
			},
			{
				Name:   "lsp",
				Usage:  "run the language server on stdio",
				Flags:  analysisFlags(),
				Action: lspAction,
			},
			{
				Name:   "version",
				Usage:  "print pyfer version",
				Action: versionAction,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "custom-decorators", Usage: "apply user decorators instead of treating them as identity"},
		&cli.BoolFlag{Name: "no-specialize", Usage: "disable per-call-site closure specialization"},
		&cli.IntFlag{Name: "max-passes", Usage: "fixpoint pass ceiling"},
		&cli.BoolFlag{Name: "debug"},
	}
}

func configOf(cmd *cli.Command) pyfer.Config {
	return pyfer.Config{
		CustomDecorators:   cmd.Bool("custom-decorators"),
		CallSpecialization: !cmd.Bool("no-specialize"),
		MaxPasses:          int(cmd.Int("max-passes")),
	}
}

func reporterOf(cmd *cli.Command) pyfer.Reporter {
	return utils.Ternary[pyfer.Reporter](cmd.Bool("debug"),
		pyfer.NewLogReporter(log.New(os.Stderr, "[pyfer] ", log.LstdFlags)),
		pyfer.NopReporter{})
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("no files given")
	}
	issues := 0
	for _, path := range cmd.Args().Slice() {
		src := string(utils.Must(os.ReadFile(path)))
		st := pyfer.NewState(configOf(cmd), pyfer.WithReporter(reporterOf(cmd)))
		for _, e := range st.Check(ctx, path, src) {
			issues++
			fmt.Fprintln(os.Stderr, e)
		}
	}
	if issues > 0 {
		return fmt.Errorf("%d issue(s) found", issues)
	}
	return nil
}

func hoverAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return fmt.Errorf("no file given")
	}
	src := string(utils.Must(os.ReadFile(path)))
	st := pyfer.NewState(configOf(cmd), pyfer.WithReporter(reporterOf(cmd)))
	for _, e := range st.Check(ctx, path, src) {
		fmt.Fprintln(os.Stderr, e)
	}
	fmt.Print(st.HoverDump())
	return nil
}

func lspAction(ctx context.Context, cmd *cli.Command) error {
	return lsp.NewServer(configOf(cmd)).Run(ctx)
}

func versionAction(_ context.Context, _ *cli.Command) error {
	fmt.Println(version)
	return nil
}
