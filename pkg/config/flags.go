package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

type flagKind int

const (
	kindString flagKind = iota
	kindInt
)

// option ties a config key to its CLI flag and help text.
type option struct {
	key   string
	flag  string
	help  string
	kind  flagKind
	value interface{}
}

var viewerOptions = []option{
	{KeyListenAddr, FlagListenAddr, HelpListenAddr, kindString, DefaultListenAddr},
	{KeyHistorySize, FlagHistorySize, HelpHistorySize, kindInt, DefaultHistorySize},
	{KeyRefreshMS, FlagRefreshMS, HelpRefreshMS, kindInt, DefaultRefreshMS},
	{KeyWorkers, FlagWorkers, HelpWorkers, kindInt, DefaultWorkers},
	{KeyMaxMessageMB, FlagMaxMessageMB, HelpMaxMessageMB, kindInt, DefaultMaxMessageMB},
	{KeyUI, FlagUI, HelpUI, kindString, DefaultUI},
	{KeyStatusSeconds, FlagStatusSeconds, HelpStatusSeconds, kindInt, DefaultStatusSeconds},
	{KeyConfigFile, FlagConfigFile, HelpConfigFile, kindString, ""},
}

var trainerOptions = []option{
	{KeyDashboardAddr, FlagDashboardAddr, HelpDashboardAddr, kindString, DefaultDashboardAddr},
	{KeyStreamMode, FlagStreamMode, HelpStreamMode, kindString, DefaultStreamMode},
	{KeyPingTimeoutMS, FlagPingTimeoutMS, HelpPingTimeoutMS, kindInt, DefaultPingTimeoutMS},
	{KeyBatches, FlagBatches, HelpBatches, kindInt, DefaultBatches},
	{KeyStepMS, FlagStepMS, HelpStepMS, kindInt, DefaultStepMS},
	{KeyBatchSize, FlagBatchSize, HelpBatchSize, kindInt, DefaultBatchSize},
	{KeyTiles, FlagTiles, HelpTiles, kindInt, DefaultTiles},
	{KeyImageSize, FlagImageSize, HelpImageSize, kindInt, DefaultImageSize},
	{KeyLossMode, FlagLossMode, HelpLossMode, kindString, DefaultLossMode},
	{KeyMaxMessageMB, FlagMaxMessageMB, HelpMaxMessageMB, kindInt, DefaultMaxMessageMB},
	{KeyConfigFile, FlagConfigFile, HelpConfigFile, kindString, ""},
}

type cliRequest struct {
	help    bool
	version bool
}

// parseCLIFlags parses args and returns a FlagSource holding only the flags
// that were given explicitly, so that "--batches 0" still overrides the env.
func parseCLIFlags(name string, opts []option, args []string) (*FlagSource, cliRequest, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	strs := make(map[string]*string)
	ints := make(map[string]*int)
	for _, o := range opts {
		switch o.kind {
		case kindString:
			strs[o.flag] = fs.String(o.flag, "", o.help)
		case kindInt:
			ints[o.flag] = fs.Int(o.flag, 0, o.help)
		}
	}
	help := fs.Bool(FlagHelp, false, HelpShowHelp)
	version := fs.Bool(FlagVersion, false, HelpShowVersion)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return NewFlagSource(), cliRequest{help: true}, nil
		}
		return nil, cliRequest{}, fmt.Errorf("invalid arguments: %w", err)
	}

	flagSource := NewFlagSource()
	req := cliRequest{help: *help, version: *version}

	keys := make(map[string]string, len(opts))
	for _, o := range opts {
		keys[o.flag] = o.key
	}
	fs.Visit(func(f *flag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		if s, ok := strs[f.Name]; ok {
			flagSource.Set(key, *s)
		} else if i, ok := ints[f.Name]; ok {
			flagSource.Set(key, *i)
		}
	})

	return flagSource, req, nil
}

// printUsage prints the usage message
func printUsage(w io.Writer, appName, description, usage string, opts []option) {
	fmt.Fprintf(w, "%s - %s\n", appName, description)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpUsage)
	fmt.Fprintf(w, "  %s\n", usage)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpOptions)
	for _, o := range opts {
		arg := "string"
		if o.kind == kindInt {
			arg = "int"
		}
		line := fmt.Sprintf("--%s %s", o.flag, arg)
		if def := fmt.Sprint(o.value); def != "" {
			fmt.Fprintf(w, "  %-28s %s (default: %s)\n", line, o.help, def)
		} else {
			fmt.Fprintf(w, "  %-28s %s\n", line, o.help)
		}
	}
	fmt.Fprintf(w, "  %-28s %s\n", "--"+FlagVersion, HelpShowVersion)
	fmt.Fprintf(w, "  %-28s %s\n", "--"+FlagHelp, HelpShowHelp)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpEnvironmentVars)
	for _, o := range opts {
		fmt.Fprintf(w, "  %-28s %s\n", o.key, o.help)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpNote)
}
