// Package flagx holds helpers for layered configuration: each config source
// parses only the flags it owns, so the same os.Args can feed several
// independent flag sets.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags listed in allowed, together with their
// values. Both "-f value" and "-f=value" forms are recognised. A value is
// taken from the next argument only when that argument does not itself start
// with a dash.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// lookupString parses a single string flag (with a short and a long name)
// out of os.Args, ignoring everything else.
func lookupString(short, long, usage string) string {
	var v string
	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.StringVar(&v, long, "", usage)
	fs.StringVar(&v, short, "", usage)
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-" + short, "-" + long}))
	return v
}

// JsonConfigFlags returns the JSON config path given by -c / -config, or "".
func JsonConfigFlags() string {
	return lookupString("c", "config", "path to JSON config file")
}

// EnvFileFlags returns the dotenv path given by -e / -env, or "".
func EnvFileFlags() string {
	return lookupString("e", "env", "path to .env file")
}
