package arg

import (
	"flag"
	"io"
	"slices"
)

// SplitPassthroughArgs splits args at the first "--". Everything after it is
// handed to the nix evaluator untouched; passthrough is nil when there is no
// separator.
func SplitPassthroughArgs(args []string) (nixscan []string, passthrough []string) {
	i := slices.Index(args, "--")
	if i < 0 {
		return slices.Clone(args), nil
	}
	return slices.Clone(args[:i]), slices.Clone(args[i+1:])
}

// ParseFlagSet works like flagset.Parse(), except it allows positional
// arguments and flags to be specified in any order.
func ParseFlagSet(flagset *flag.FlagSet, args []string) error {
	flagset.SetOutput(io.Discard)
	var positional []string
	for {
		if err := flagset.Parse(args); err != nil {
			return err
		}
		rest := flagset.Args()
		if len(rest) == 0 {
			break
		}
		// Parse stopped at a positional argument; set it aside and resume
		// with whatever follows.
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	return flagset.Parse(positional)
}
