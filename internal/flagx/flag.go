// Package flagx splits a command line between the configuration layer and
// the realtyctl subcommands, which share os.Args.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the arguments that belong to allowedFlags, together with
// their values. Both "-f value" and "-f=value" forms are recognised; a value
// is only consumed when the next token does not start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	filtered, _ := splitArgs(args, allowedFlags)
	return filtered
}

// StripArgs is the complement of FilterArgs: it returns everything that
// FilterArgs would drop, in the original order.
func StripArgs(args []string, flags []string) []string {
	_, rest := splitArgs(args, flags)
	return rest
}

func splitArgs(args []string, flags []string) (matched, rest []string) {
	allowed := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		allowed[f] = struct{}{}
	}

	matched = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				matched = append(matched, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			rest = append(rest, arg)
			continue
		}

		matched = append(matched, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			matched = append(matched, args[i+1])
			i++
		}
	}

	return matched, rest
}

// JsonConfigFlags returns the config file path given with -c or -config, or
// an empty string when neither is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
