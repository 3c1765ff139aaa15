package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zboralski/tinyhook/internal/guest"
	"github.com/zboralski/tinyhook/internal/hooks"
	glog "github.com/zboralski/tinyhook/internal/log"
	"github.com/zboralski/tinyhook/internal/script"
	"github.com/zboralski/tinyhook/internal/trace"
	"github.com/zboralski/tinyhook/internal/ui/colorize"
)

var (
	verbose    bool
	quiet      bool
	scriptPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tinyhook",
		Short: "Develop and replay syscall hook scripts",
		Long: `Tinyhook is the scripting layer a user-mode emulator embeds to let a
JavaScript file observe and rewrite every guest syscall: pre-hooks can modify
arguments or skip the call with a synthetic return value, post-hooks can
rewrite the result, and scripts get bounded read/write access to guest memory.

This tool develops those scripts without an emulator attached:

  tinyhook check hooks.js              # load a script, list registered hooks
  tinyhook replay -s hooks.js t.yaml   # drive a recorded trace through it
  tinyhook show hooks.js               # syntax-highlighted dump`,
		DisableFlagsInUseLine: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")

	checkCmd := &cobra.Command{
		Use:   "check <hooks.js>",
		Short: "Load a hook script and report what it registers",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	rootCmd.AddCommand(checkCmd)

	replayCmd := &cobra.Command{
		Use:   "replay <trace.yaml>",
		Short: "Replay a recorded syscall trace through a hook script",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "hook script to load (required)")
	replayCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode (summary only)")
	replayCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(replayCmd)

	showCmd := &cobra.Command{
		Use:   "show <hooks.js>",
		Short: "Print a hook script with syntax highlighting",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	rootCmd.AddCommand(showCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newManager(as guest.AddressSpace) *hooks.Manager {
	glog.Init(verbose)
	return hooks.New(as, script.NewGoja(), glog.L)
}

func runCheck(cmd *cobra.Command, args []string) error {
	mgr := newManager(guest.NewMemSim())
	if err := mgr.Init(args[0]); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	defer mgr.Shutdown()

	pre := mgr.HookNumbers(hooks.Pre)
	post := mgr.HookNumbers(hooks.Post)
	fmt.Printf("%s %s\n", colorize.Header("▶"), args[0])
	fmt.Printf("  %s %s\n", colorize.Detail("pre hooks: "), formatNums(pre))
	fmt.Printf("  %s %s\n", colorize.Detail("post hooks:"), formatNums(post))
	return nil
}

func formatNums(nums []int) string {
	if len(nums) == 0 {
		return colorize.Detail("none")
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = colorize.SyscallName(fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, " ")
}

func runReplay(cmd *cobra.Command, args []string) error {
	rec, err := trace.LoadRecording(args[0])
	if err != nil {
		return err
	}

	sim := guest.NewMemSim()
	for _, r := range rec.Memory {
		if err := sim.Map(r.Addr, r.Size); err != nil {
			return fmt.Errorf("seed memory: %w", err)
		}
		if r.Data != "" {
			if err := sim.WriteAt(r.Addr, []byte(r.Data)); err != nil {
				return fmt.Errorf("seed memory: %w", err)
			}
		}
	}

	mgr := newManager(sim)
	if err := mgr.Init(scriptPath); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	defer mgr.Shutdown()

	session := trace.NewSession()
	if !quiet {
		name := rec.Name
		if name == "" {
			name = args[0]
		}
		fmt.Printf("%s %s  %s %s\n", colorize.Header("▶"), name,
			colorize.Detail("session"), colorize.Detail(session.ID.String()[:8]))
	}

	for i, c := range rec.Syscalls {
		ev := replayOne(mgr, session, i+1, c)
		if !quiet {
			fmt.Println(formatEvent(ev, len(c.Args)))
		}
	}

	printSummary(session)
	return nil
}

// replayOne drives one recorded syscall through pre and post dispatch. A
// Skip decision bypasses the post path; otherwise the recorded return value
// stands in for the real syscall's result.
func replayOne(mgr *hooks.Manager, session *trace.Session, seq int, c trace.Call) *trace.Event {
	ctx := hooks.Context{Num: c.Num}
	copy(ctx.Args[:], c.Args)

	ev := trace.NewEvent(seq, c.Num, c.Name)
	res, fired := mgr.PreSyscall(&ctx)

	var ret int64
	switch {
	case fired && res.Action == hooks.Skip:
		ev.AddTag(trace.PreHook)
		ev.AddTag(trace.Skipped)
		ret = res.Ret
	case fired:
		ev.AddTag(trace.PreHook)
		if res.Args != ctx.Args {
			ev.AddTag(trace.Rewrite)
		}
		ectx := ctx
		ectx.Args = res.Args
		ret = mgr.PostSyscall(&ectx, c.Ret)
	default:
		ret = mgr.PostSyscall(&ctx, c.Ret)
		if mgr.HasHook(hooks.Post, c.Num) {
			ev.AddTag(trace.PostHook)
		} else {
			ev.AddTag(trace.NoHook)
		}
	}
	if !ev.Tags.Has(trace.Skipped) {
		if mgr.HasHook(hooks.Post, c.Num) && ev.Tags.Has(trace.PreHook) {
			ev.AddTag(trace.PostHook)
		}
		if ret != c.Ret {
			ev.AddTag(trace.Rewrite)
		}
	}

	ev.Args = res.Args[:]
	ev.Ret = ret
	session.Add(ev)
	return ev
}

func formatEvent(ev *trace.Event, argc int) string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString(colorize.Detail(fmt.Sprintf("[%4d]", ev.Seq)))
	b.WriteString("  ")

	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("sys_%d", ev.Num)
	}
	b.WriteString(colorize.SyscallName(name))
	b.WriteString(colorize.Detail(fmt.Sprintf("(%d)", ev.Num)))

	if argc > 0 {
		parts := make([]string, argc)
		for i := 0; i < argc; i++ {
			parts[i] = fmt.Sprintf("%d", ev.Args[i])
		}
		b.WriteString("  ")
		b.WriteString(colorize.Detail("args=[" + strings.Join(parts, ", ") + "]"))
	}

	b.WriteString("  ")
	b.WriteString(colorize.Detail("ret="))
	b.WriteString(colorize.String(fmt.Sprintf("%d", ev.Ret)))

	for _, tag := range ev.Tags.Strings() {
		b.WriteString("  ")
		b.WriteString(colorize.Tag(tag))
	}
	return b.String()
}

func printSummary(session *trace.Session) {
	fmt.Print(colorize.Border("───────────────────────────────────────── "))
	fmt.Printf("%s syscalls  %s hooked  %s skipped  %s rewritten\n",
		colorize.SyscallName(fmt.Sprintf("%d", len(session.Events))),
		colorize.SyscallName(fmt.Sprintf("%d", session.Count(trace.PreHook)+session.Count(trace.PostHook))),
		colorize.SyscallName(fmt.Sprintf("%d", session.Count(trace.Skipped))),
		colorize.SyscallName(fmt.Sprintf("%d", session.Count(trace.Rewrite))))
}

func runShow(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	fmt.Println(colorize.Script(string(src)))
	return nil
}
