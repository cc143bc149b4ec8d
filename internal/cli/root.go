// Package cli implements the ytpp command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/lvcoi/ytpp/internal/app"
	"github.com/lvcoi/ytpp/internal/config"
	"github.com/lvcoi/ytpp/internal/downloader"
	"github.com/lvcoi/ytpp/internal/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// flags holds the parsed command line.
type flags struct {
	downloadFolder string
	defaultStream  string
	defaultCaption string
	stream         string
	caption        string
	showInfo       bool
	rawInfo        bool
	jsonPrettify   bool
	showConfig     bool
	resetDefault   bool
	clearTemp      bool
	version        bool
	pick           bool
	quiet          bool
	logLevel       string
	timeout        time.Duration
}

// runtimeEnv is what a command run touches outside its flags.
type runtimeEnv struct {
	stdout io.Writer
	stderr io.Writer
	store  *config.Store
	// newService builds the downloader for a URL run.
	newService func(opts downloader.Options) app.Service
}

func defaultEnv() (*runtimeEnv, error) {
	store, err := config.NewOS()
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{
		stdout: os.Stdout,
		stderr: os.Stderr,
		store:  store,
		newService: func(opts downloader.Options) app.Service {
			return downloader.New(opts)
		},
	}, nil
}

func newRootCmd(env *runtimeEnv, exitCode *int) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "ytpp [url]",
		Short: "Download YouTube videos at a chosen quality, merged and ready to play",
		Long: "ytpp downloads a YouTube video at a quality tier, merges the separate video\n" +
			"and audio tracks with ffmpeg, optionally embeds captions, and can produce a\n" +
			"tagged mp3 with the thumbnail as cover art.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Setup(f.logLevel, env.stderr)
			if len(args) == 0 && cmd.Flags().NFlag() == 0 {
				fmt.Fprintln(env.stderr, "No arguments supplied! exiting...")
				cmd.SetOut(env.stderr)
				_ = cmd.Usage()
				*exitCode = 1
				return nil
			}
			if len(args) == 1 {
				*exitCode = runURL(cmd.Context(), cmd, env, f, args[0])
				return nil
			}
			*exitCode = runConfig(cmd, env, f)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.downloadFolder, "download-folder", "d", "", `set the download folder [eg: "/path/to/folder"]`)
	fl.StringVar(&f.defaultStream, "default-stream", "", "set the default download stream (a tier name, mp3 or max)")
	fl.StringVar(&f.defaultCaption, "default-caption", "", "set the default caption language code (or none)")
	fl.StringVarP(&f.stream, "stream", "s", "", "download stream for this video (any tier alias, eg: 720, hd, 4k, mp3)")
	fl.StringVarP(&f.caption, "caption", "c", "", "caption language code to embed for this video")
	fl.BoolVarP(&f.showInfo, "show-info", "i", false, "show video info and available streams")
	fl.BoolVarP(&f.rawInfo, "raw-info", "r", false, "show video info as JSON")
	fl.BoolVarP(&f.jsonPrettify, "json-prettify", "j", false, "indent JSON output (use with --raw-info)")
	fl.BoolVar(&f.showConfig, "show-config", false, "show the current configuration")
	fl.BoolVar(&f.resetDefault, "reset-default", false, "reset the configuration to defaults")
	fl.BoolVar(&f.clearTemp, "clear-temp", false, "remove temporary files left by failed downloads")
	fl.BoolVarP(&f.version, "version", "v", false, "print the version")
	fl.BoolVar(&f.pick, "pick", false, "choose the stream interactively")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "only print warnings and errors")
	fl.StringVar(&f.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")
	fl.DurationVar(&f.timeout, "timeout", 3*time.Minute, "per-request timeout")

	streamAliases := lo.FlatMap(downloader.Tiers(), func(t downloader.Tier, _ int) []string {
		return downloader.AliasesFor(t)
	})
	lo.Must0(cmd.RegisterFlagCompletionFunc("stream", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return streamAliases, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(cmd.RegisterFlagCompletionFunc("default-stream", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := lo.Map(downloader.Tiers(), func(t downloader.Tier, _ int) string { return string(t) })
		return append(names, downloader.StreamMax), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(cmd.MarkFlagDirname("download-folder"))

	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	return cmd
}

// runURL handles an invocation with a video URL. Configuration flags are
// ignored with a notice.
func runURL(ctx context.Context, cmd *cobra.Command, env *runtimeEnv, f *flags, url string) int {
	printer := downloader.NewPrinter(env.stderr, f.quiet)
	for _, name := range []string{"download-folder", "default-stream", "default-caption", "reset-default", "clear-temp", "show-config"} {
		if cmd.Flags().Changed(name) {
			printer.Log(downloader.LogWarn, fmt.Sprintf("Video url supplied! ignoring --%s flag...", name))
		}
	}
	if f.jsonPrettify && !f.rawInfo {
		printer.Log(downloader.LogWarn, "Missing flag! --json-prettify must be used with a flag which returns json data (eg: --raw-info)")
	}

	cfg, err := env.store.Load()
	if err != nil {
		printer.Result("", 0, err)
		return downloader.ExitCode(err)
	}
	tempDir, err := env.store.TempDir()
	if err != nil {
		printer.Result("", 0, err)
		return downloader.ExitCode(err)
	}

	opts := downloader.Options{
		DownloadDir:    cfg.DownloadDir,
		TempDir:        tempDir,
		Stream:         f.stream,
		Caption:        f.caption,
		DefaultStream:  cfg.DefaultStream,
		DefaultCaption: cfg.DefaultCaption,
		Pick:           f.pick,
		Quiet:          f.quiet,
		Timeout:        f.timeout,
	}
	req := app.Request{
		URL:      url,
		ShowInfo: f.showInfo,
		RawInfo:  f.rawInfo,
		Pretty:   f.jsonPrettify,
		Download: f.stream != "" || f.pick || !(f.showInfo || f.rawInfo || f.jsonPrettify),
	}
	_, code := app.Run(ctx, env.newService(opts), req, env.stdout)
	return code
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	env, err := defaultEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer downloader.CloseIdleConnections()
	return execute(ctx, env, os.Args[1:])
}

func execute(ctx context.Context, env *runtimeEnv, args []string) int {
	exitCode := 0
	cmd := newRootCmd(env, &exitCode)
	if supportsColor(env.stdout) {
		cc.Init(&cc.Config{
			RootCmd:       cmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(env.stderr, "Error:", err)
		fmt.Fprintln(env.stderr, cmd.UsageString())
		return 1
	}
	return exitCode
}

func supportsColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
