package main

const (
	defaultConfigPath = "/etc/hestiabak/hestiabak.conf"
	defaultSecretPath = "/etc/hestiabak/api_key"
)

type Command struct {
	Version struct{} `cmd:"" help:"Print version information."`
	Setup   struct {
		Config string `help:"config file path" short:"c" default:"/etc/hestiabak/hestiabak.conf"`
		Secret string `help:"email API key file path" default:"/etc/hestiabak/api_key"`
	} `cmd:"" help:"Interactively create the config and secret files."`
	Backup struct {
		Config   string `help:"config file path" short:"c" default:"/etc/hestiabak/hestiabak.conf"`
		Secret   string `help:"email API key file path" default:"/etc/hestiabak/api_key"`
		Database string `help:"run history database path" short:"d" default:"/var/lib/hestiabak/history.db"`
		LogDir   string `help:"directory for append-only run logs" default:"/var/log/hestiabak"`
		DryRun   bool   `help:"don't upload, delete or email anything, just print the output"`
	} `cmd:"" help:"Back up all hosting accounts and upload the archives to remote storage."`
	Cleanup struct {
		Config   string `help:"config file path" short:"c" default:"/etc/hestiabak/hestiabak.conf"`
		Secret   string `help:"email API key file path" default:"/etc/hestiabak/api_key"`
		Database string `help:"run history database path" short:"d" default:"/var/lib/hestiabak/history.db"`
		LogDir   string `help:"directory for append-only run logs" default:"/var/log/hestiabak"`
		DryRun   bool   `help:"don't delete or email anything, just print the output"`
	} `cmd:"" help:"Delete remote archives older than the retention threshold."`
	History struct {
		Database string `help:"run history database path" short:"d" default:"/var/lib/hestiabak/history.db"`
		Limit    int    `help:"number of runs to show" default:"10"`
	} `cmd:"" help:"Show recent run history."`
	Daemon struct {
		Config   string `help:"config file path" short:"c" default:"/etc/hestiabak/hestiabak.conf"`
		Secret   string `help:"email API key file path" default:"/etc/hestiabak/api_key"`
		Database string `help:"run history database path" short:"d" default:"/var/lib/hestiabak/history.db"`
		LogDir   string `help:"directory for append-only run logs" default:"/var/log/hestiabak"`
		DryRun   bool   `help:"don't upload, delete or email anything, just print the output"`
	} `cmd:"" help:"Run backup and cleanup on their configured schedules."`
}
