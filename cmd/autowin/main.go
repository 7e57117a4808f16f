package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"autowin"
	"autowin/internal/config"
	"autowin/internal/logging"
	"autowin/internal/platform"
	"autowin/internal/runtimepath"
	"autowin/internal/winstate"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "locate":
		os.Exit(runLocate(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "resize":
		os.Exit(runResize(os.Args[2:]))
	case "monitor":
		os.Exit(runMonitor(os.Args[2:]))
	case "bindings":
		os.Exit(runBindings(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: autowin <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  locate              Resolve a window title/pattern to a handle")
	fmt.Fprintln(w, "  state               Print a window's geometry+DPI snapshot")
	fmt.Fprintln(w, "  resize              Resize a window's client area")
	fmt.Fprintln(w, "  monitor             Watch tracked windows for DPI changes")
	fmt.Fprintln(w, "  bindings            Revalidate persisted window bindings")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
}

func newCore() (*autowin.Core, *config.Config, error) {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return nil, nil, err
	}

	log := logging.NewStderr(cfg.LogLevel)
	return autowin.New(backend, cfg, log), cfg, nil
}

func runLocate(args []string) int {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	kind := fs.String("kind", "", "render-surface kind hint (e.g. mumu, ldplayer)")
	all := fs.Bool("all", false, "list every matching surface handle")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: autowin locate [-kind KIND] [-all] TITLE")
		return 2
	}

	core, _, err := newCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	if *all {
		handles, err := core.LocateAll(fs.Arg(0), *kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		for _, h := range handles {
			fmt.Println(uint32(h))
		}
		return 0
	}

	h, err := core.Locate(fs.Arg(0), *kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Println(uint32(h))
	return 0
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: autowin state HANDLE")
		return 2
	}

	var handle uint32
	if _, err := fmt.Sscanf(fs.Arg(0), "%d", &handle); err != nil {
		fmt.Fprintln(os.Stderr, "invalid handle:", fs.Arg(0))
		return 2
	}

	core, _, err := newCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	st, err := core.GetWindowState(platform.Handle(handle))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func runResize(args []string) int {
	fs := flag.NewFlagSet("resize", flag.ExitOnError)
	width := fs.Int("width", 1280, "target client width")
	height := fs.Int("height", 720, "target client height")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: autowin resize [-width W] [-height H] HANDLE")
		return 2
	}

	var handle uint32
	if _, err := fmt.Sscanf(fs.Arg(0), "%d", &handle); err != nil {
		fmt.Fprintln(os.Stderr, "invalid handle:", fs.Arg(0))
		return 2
	}

	core, _, err := newCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	result, err := core.ResizeClientArea(platform.Handle(handle), *width, *height)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Printf("client area: %dx%d (residual %dpx)\n", result.Width, result.Height, result.Residual)
	if result.Warning != "" {
		fmt.Fprintln(os.Stderr, "warning:", result.Warning)
	}
	return 0
}

func runMonitor(args []string) int {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	fs.Parse(args)

	core, _, err := newCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	// Seed the cache so the poller has handles to track.
	for _, arg := range fs.Args() {
		var handle uint32
		if _, err := fmt.Sscanf(arg, "%d", &handle); err != nil {
			fmt.Fprintln(os.Stderr, "invalid handle:", arg)
			return 2
		}
		if _, err := core.GetWindowState(platform.Handle(handle)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: handle %d: %v\n", handle, err)
		}
	}

	core.OnDPIChange(func(rec winstate.ChangeRecord) {
		fmt.Printf("dpi change: handle %d %d -> %d at %s\n",
			uint32(rec.Handle), rec.PreviousDPI, rec.NewDPI, rec.At.Format("15:04:05"))
	})
	return runMonitorLoop(core)
}

func runMonitorLoop(core *autowin.Core) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core.EnableMonitoring(ctx)
	defer core.DisableMonitoring()

	<-ctx.Done()
	return 0
}

func runBindings(args []string) int {
	fs := flag.NewFlagSet("bindings", flag.ExitOnError)
	file := fs.String("file", "", "bindings file path (default: runtime dir snapshot)")
	fs.Parse(args)

	if *file == "" {
		path, err := runtimepath.BindingsPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		*file = path
	}

	core, _, err := newCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	resolved, unresolved, err := core.LoadBindings(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	for _, b := range resolved {
		fmt.Printf("slot %d: %q -> handle %d\n", b.Slot, b.Title, uint32(b.Handle))
	}
	for _, u := range unresolved {
		fmt.Printf("slot %d: %q UNRESOLVED (%s)\n", u.Slot, u.Title, u.Reason)
	}
	if len(unresolved) > 0 {
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: autowin config <validate|print>")
		return 2
	}

	path, err := config.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	switch args[0] {
	case "validate":
		fmt.Println("configuration is valid")
		return 0
	case "print":
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
