package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	wincorn "github.com/lunixbochs/wincorn/go"
	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/arch"
	"github.com/lunixbochs/wincorn/go/cpu/unicorn"
	"github.com/lunixbochs/wincorn/go/dispatch"
	"github.com/lunixbochs/wincorn/go/models"
)

const configName = "wincorn.toml"

var (
	colorCall   = ansi.ColorFunc("cyan")
	colorRet    = ansi.ColorFunc("green")
	colorEvent  = ansi.ColorFunc("yellow")
	colorHeader = ansi.ColorFunc("red+b")
)

// Cmd is the shared flag, config and session setup behind each command.
type Cmd struct {
	Config  *models.Config
	Flags   *flag.FlagSet
	Log     *zap.Logger
	Out     io.Writer
	Session *wincorn.Session
	Timeout time.Duration

	Usage      string
	SetupFlags func() error
	// RunSession runs after the session is built, with the positional arguments.
	RunSession func(ctx context.Context, args []string) error

	color bool
	loops *models.LoopDetect
}

func NewCmd(usage string) *Cmd {
	return &Cmd{
		Flags: flag.NewFlagSet("cli", flag.ExitOnError),
		Out:   os.Stderr,
		Usage: usage,
	}
}

// LoadConfig reads path, or the first wincorn.toml in the user's config folders.
// With neither it returns the defaults.
func LoadConfig(path string) (*models.Config, error) {
	if path == "" {
		dirs := configdir.New("lunixbochs", "wincorn")
		folder := dirs.QueryFolderContainsFile(configName)
		if folder == nil {
			return models.DefaultConfig(), nil
		}
		path = filepath.Join(folder.Path, configName)
	}
	return models.LoadConfig(path)
}

func newLogger(out string, verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.DisableStacktrace = true
	if out != "" {
		config.OutputPaths = []string{out}
		config.ErrorOutputPaths = []string{out}
	}
	log, err := config.Build()
	return log, errors.Wrap(err, "failed to build logger")
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err and, for pkg/errors values, the frames up to main.
func (c *Cmd) PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	st, ok := errors.Cause(err).(stackTracer)
	if !ok {
		st, ok = err.(stackTracer)
	}
	if !ok {
		return
	}
	width := 0
	var lines [][2]string
	for _, f := range st.StackTrace() {
		method := fmt.Sprintf("%n", f)
		line := fmt.Sprintf("%s:%d", f, f)
		if len(line) > width {
			width = len(line)
		}
		lines = append(lines, [2]string{line, method})
		if method == "main" {
			break
		}
	}
	for _, l := range lines {
		fmt.Fprintf(os.Stderr, "%-*s | %s()\n", width, l[0], l[1])
	}
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (c *Cmd) paint(fn func(string) string, s string) string {
	if c.color {
		return fn(s)
	}
	return s
}

// watch prints every dispatched call and fallback event to c.Out.
// With loop > 0, calls repeating from the same stub sequence are collapsed.
func (c *Cmd) watch(s *wincorn.Session, strsize, loop int) {
	if loop > 0 {
		c.loops = models.NewLoopDetect(loop)
	}
	s.Dispatcher.Watch(func(call *api.Call, ret uint64) {
		if c.loops != nil {
			skip, n, period := c.loops.Update(call.Stub ^ call.ReturnAddr<<1)
			c.printLoop(n, period)
			if skip {
				return
			}
		}
		line := api.Trace(call, strsize)
		fmt.Fprintf(c.Out, "%s%s\n", c.paint(colorCall, line), c.paint(colorRet, fmt.Sprintf(" = %#x", ret)))
	})
	s.OnEvent(func(ev dispatch.Event) {
		fmt.Fprintf(c.Out, "%s\n", c.paint(colorEvent, "unhandled: "+ev.String()))
	})
}

func (c *Cmd) printLoop(n, period int) {
	if n > 0 {
		fmt.Fprintf(c.Out, "%s\n", c.paint(colorEvent, fmt.Sprintf("... %d calls repeating every %d", n, period)))
	}
}

// dumpState prints guest registers and mappings after a failed run.
func (c *Cmd) dumpState(s *wincorn.Session) {
	if regs, err := s.Emu.Arch().RegDump(s.Emu); err == nil {
		for i, r := range regs {
			sep := "  "
			if i%4 == 3 || i == len(regs)-1 {
				sep = "\n"
			}
			fmt.Fprintf(os.Stderr, "%6s %#018x%s", r.Name, r.Val, sep)
		}
	}
	for _, m := range s.Emu.Mappings() {
		fmt.Fprintf(os.Stderr, "  %s\n", m)
	}
}

// Run parses argv, builds the session and calls RunSession. It returns the exit code.
func (c *Cmd) Run(argv []string) int {
	fs := c.Flags
	configPath := fs.String("config", "", "load configuration from this TOML file (default: "+configName+" in the user config folder)")
	archName := fs.String("arch", "", "guest architecture: x86 or x86_64 (overrides config)")
	trace := fs.Bool("trace", false, "print each intercepted call")
	loop := fs.Int("loop", 8, "collapse traced call sequences repeating with up to this period (0 disables)")
	strsize := fs.Int("strsize", -1, "limit traced strings to this length (overrides config)")
	colorFlag := fs.Bool("color", false, "color the trace even when not writing to a terminal")
	verbose := fs.Bool("v", false, "verbose output")
	outfile := fs.String("o", "", "redirect log output to file (default stderr)")
	fs.DurationVar(&c.Timeout, "timeout", 0, "stop emulation after this long (0 disables)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] %s\n\nOptions:\n", argv[0], c.Usage)
		var flags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
		models.PrintFlags(flags)
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	fs.Parse(argv[1:])

	config, err := LoadConfig(*configPath)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	if *archName != "" {
		config.Arch = *archName
	}
	if *strsize >= 0 {
		config.Strsize = *strsize
	}
	config.Verbose = config.Verbose || *verbose
	config.Color = config.Color || *colorFlag
	c.Config = config
	c.color = config.Color || isTerminal(c.Out)

	log, err := newLogger(*outfile, config.Verbose)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	defer log.Sync()
	c.Log = log
	dispatch.SetLogger(log)

	a, err := arch.GetArch(config.Arch)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	cpu, err := (&unicorn.Builder{Arch: a}).New()
	if err != nil {
		c.PrintError(err)
		return 1
	}
	s, err := wincorn.NewSession(cpu, a, config, log)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	defer s.Close()
	c.Session = s
	if *trace {
		c.watch(s, config.Strsize, *loop)
	}

	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	err = c.RunSession(ctx, fs.Args())
	if c.loops != nil {
		c.printLoop(c.loops.Flush())
	}
	if status, ok := errors.Cause(err).(models.ExitStatus); ok {
		return int(status)
	}
	if err != nil {
		c.PrintError(err)
		c.dumpState(s)
		return 1
	}
	return 0
}

// Header prints a section title in the trace output.
func (c *Cmd) Header(s string) {
	fmt.Fprintf(c.Out, "%s\n", c.paint(colorHeader, s))
}
