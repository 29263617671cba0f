package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"js2f/compiler"
)

type globalConfig struct {
	configPath  string
	configGiven bool
	noAnnotate  bool
	echoSource  bool
	debug       bool
}

func main() {
	rootCommand := &cobra.Command{
		Use:           "js2f",
		Short:         "compile a JavaScript subset to AS2 stack-machine assembly",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := new(globalConfig)
	rootCommand.PersistentFlags().StringVar(&g.configPath, "config", configName, "`path` to project config")
	rootCommand.PersistentFlags().BoolVar(&g.noAnnotate, "no-annotate", false, "skip stack simulator annotations")
	rootCommand.PersistentFlags().BoolVar(&g.echoSource, "echo-source", false, "echo source statements as comments")
	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output and dump partial assembly on failure")

	rootCommand.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		g.debug = *showDebug
		g.configGiven = cmd.Flags().Changed("config")
		initLogging(*showDebug)
	}

	rootCommand.AddCommand(
		newCompileCommand(g),
		newBuildCommand(g),
	)

	if err := rootCommand.ExecuteContext(context.Background()); err != nil {
		initLogging(false)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "js2f: ", log.StdFlags, nil),
		})
	})
}

// options merges flags over the project config
func (g *globalConfig) options(cfg *projectConfig) compiler.Options {
	return compiler.Options{
		Annotate:   cfg.annotate() && !g.noAnnotate,
		EchoSource: cfg.EchoSource || g.echoSource,
		Debug:      g.debug,
	}
}

func newCompileCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "compile FILE",
		Short:                 "compile one source file to stdout",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd.Context(), g, args[0])
	}
	return c
}

func runCompile(ctx context.Context, g *globalConfig, path string) error {
	cfg, err := loadConfig(g.configPath, g.configGiven)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := compiler.Compile(path, string(src), g.options(cfg))
	if err != nil {
		if g.debug && out != "" {
			log.Debugf(ctx, "partial assembly for %s:\n%s", path, out)
		}
		return err
	}
	fmt.Print(out)
	return nil
}

type buildOptions struct {
	outDir string
	paths  []string
}

func newBuildCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "build [options] [PATH [...]]",
		Short:                 "compile files or directory trees to .fasm files",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ArbitraryArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(buildOptions)
	c.Flags().StringVar(&opts.outDir, "out", "", "write output files under `dir` instead of next to sources")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.paths = args
		if len(opts.paths) == 0 {
			opts.paths = []string{"."}
		}
		return runBuild(cmd.Context(), g, opts)
	}
	return c
}

func runBuild(ctx context.Context, g *globalConfig, opts *buildOptions) error {
	cfg, err := loadConfig(g.configPath, g.configGiven)
	if err != nil {
		return err
	}
	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.Out
	}

	var sources []string
	for _, root := range opts.paths {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			sources = append(sources, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".js" {
				return nil
			}
			if excluded(cfg.Exclude, path) {
				log.Debugf(ctx, "excluded %s", path)
				return nil
			}
			sources = append(sources, path)
			return nil
		})
		if err != nil {
			return err
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no source files found in %s", strings.Join(opts.paths, ", "))
	}

	copts := g.options(cfg)
	for _, src := range sources {
		if err := buildFile(ctx, src, outDir, copts); err != nil {
			return err
		}
	}
	log.Infof(ctx, "compiled %d file(s)", len(sources))
	return nil
}

// buildFile compiles one source file to its .fasm sibling, or to a file
// of the same base name directly under outDir; source subdirectories are
// not reproduced there.
func buildFile(ctx context.Context, path, outDir string, opts compiler.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, err := compiler.Compile(path, string(data), opts)
	if err != nil {
		if opts.Debug && out != "" {
			log.Debugf(ctx, "partial assembly for %s:\n%s", path, out)
		}
		return err
	}

	target := strings.TrimSuffix(path, filepath.Ext(path)) + ".fasm"
	if outDir != "" {
		target = filepath.Join(outDir, filepath.Base(target))
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}
	log.Debugf(ctx, "%s -> %s", path, target)
	return os.WriteFile(target, []byte(out), 0o644)
}

// excluded matches a path against the config's exclusion globs
func excluded(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
