// Package flagx picks selected flags out of a command line so that config
// sources can be located before the full flag set is parsed.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments of args that are allowed flags, together
// with their values. Both "-c conf.json" and "-c=conf.json" forms are kept;
// a following token that starts with '-' is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// Sources names the files configuration is read from before flags apply.
type Sources struct {
	JSON    string // -c / -config
	EnvFile string // -e / -env
}

// ConfigSources extracts the JSON config path and the dotenv file path from
// args. Unknown flags are ignored; the last occurrence wins.
func ConfigSources(args []string) Sources {
	var s Sources

	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&s.JSON, "config", "", "path to JSON config file")
	fs.StringVar(&s.JSON, "c", "", "path to JSON config file (short)")
	fs.StringVar(&s.EnvFile, "env", "", "path to .env file")
	fs.StringVar(&s.EnvFile, "e", "", "path to .env file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "-e", "-env"}))

	return s
}
