package cli

import (
	"fmt"

	"github.com/lvcoi/ytpp/internal/downloader"
	"github.com/spf13/cobra"
)

// runConfig applies the configuration flags of an invocation without a URL.
// Every flag is handled; the exit status is that of the worst failure.
func runConfig(cmd *cobra.Command, env *runtimeEnv, f *flags) int {
	printer := downloader.NewPrinter(env.stderr, false)
	changed := cmd.Flags().Changed
	exitCode := 0
	fail := func(err error) {
		printer.Result("", 0, err)
		if code := downloader.ExitCode(err); code > exitCode {
			exitCode = code
		}
	}

	if changed("download-folder") {
		ok, err := env.store.SetDownloadDir(f.downloadFolder)
		switch {
		case err != nil:
			fail(err)
			printer.Log(downloader.LogWarn, "Invalid download folder path! Please enter a valid path.")
		case ok:
			printer.Log(downloader.LogInfo, "Download folder updated to: "+f.downloadFolder)
		default:
			printer.Log(downloader.LogInfo, "Download folder path is the same! Not updating...")
		}
	}

	if changed("default-stream") {
		ok, err := env.store.SetDefaultStream(f.defaultStream)
		switch {
		case err != nil:
			fail(err)
			printer.Log(downloader.LogWarn, "Invalid default stream! Use a tier name (eg: 720p), mp3 or max.")
			if t, ok := downloader.TierFor(downloader.Suggest(f.defaultStream)); ok {
				printer.Log(downloader.LogWarn, fmt.Sprintf("Did you mean %q?", t))
			}
		case ok:
			printer.Log(downloader.LogInfo, "Default stream updated to: "+f.defaultStream)
		default:
			printer.Log(downloader.LogInfo, "Default stream is the same! Not updating...")
		}
	}

	if changed("default-caption") {
		ok, err := env.store.SetDefaultCaption(f.defaultCaption)
		switch {
		case err != nil:
			fail(err)
		case ok:
			printer.Log(downloader.LogInfo, "Default caption updated to: "+f.defaultCaption)
		default:
			printer.Log(downloader.LogInfo, "Default caption is the same! Not updating...")
		}
	}

	if f.resetDefault {
		removed, err := env.store.Reset()
		switch {
		case err != nil:
			fail(err)
		case removed:
			printer.Log(downloader.LogInfo, "Config reset successful!")
		default:
			printer.Log(downloader.LogInfo, "Already using the default configs! Not resetting...")
		}
	}

	if f.clearTemp {
		removed, err := env.store.ClearTemp(func(name string, err error) {
			printer.Log(downloader.LogWarn, fmt.Sprintf("could not remove %s: %v", name, err))
		})
		if err != nil {
			fail(err)
		}
		for _, name := range removed {
			printer.Log(downloader.LogInfo, "Removed: "+name)
		}
		if err == nil && len(removed) == 0 {
			printer.Log(downloader.LogInfo, "No temporary files found to clear...")
		}
	}

	if f.showConfig {
		cfg, err := env.store.Load()
		if err != nil {
			fail(err)
		} else {
			paths := env.store.Paths()
			fmt.Fprintf(env.stdout, "downloadDIR: %s\ntempDIR: %s\nconfigDIR: %s\ndefaultStream: %s\ndefaultCaption: %s\n",
				cfg.DownloadDir, paths.TempDir, paths.ConfigDir, cfg.DefaultStream, cfg.DefaultCaption)
		}
	}

	if f.version {
		fmt.Fprintln(env.stdout, "ytpp "+Version())
	}

	for _, name := range []string{"show-info", "raw-info", "stream", "caption", "pick"} {
		if changed(name) {
			printer.Log(downloader.LogWarn, fmt.Sprintf("No video url supplied! ignoring --%s flag...", name))
		}
	}
	if f.jsonPrettify && !f.rawInfo {
		printer.Log(downloader.LogWarn, "Missing flag! --json-prettify must be used with a flag which returns json data (eg: --raw-info)")
	}
	return exitCode
}
