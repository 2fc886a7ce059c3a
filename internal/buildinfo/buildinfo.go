// Package buildinfo exposes version stamps set via -ldflags.
package buildinfo

var (
	Service = "fleetassign"
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"service": Service,
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}

