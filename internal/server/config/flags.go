package config

import (
	"flag"
	"io"

	"github.com/sazinconstruction/adminkeeper/internal/flagx"
	"github.com/sazinconstruction/adminkeeper/internal/timex"
)

// parseFlags applies the short command-line flags:
//
//	-a string   HTTP bind address (e.g. ":5000")
//	-g string   gRPC health bind address
//	-d string   MongoDB URI
//	-n string   MongoDB database name
//	-t string   session lifetime ("168h", "7d")
//	-r string   expired-session policy: rotate | reject
//	-l string   log level
//
// Secrets are deliberately not accepted as flags.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-n", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.MongoURI, "d", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "MongoDB database")
	ttl := fs.String("t", "", "session lifetime")
	fs.StringVar(&config.SessionRotation, "r", config.SessionRotation, "expired session policy")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *ttl != "" {
		d, err := timex.Parse(*ttl)
		if err != nil {
			return err
		}
		config.SessionTTL = d
	}
	return nil
}
