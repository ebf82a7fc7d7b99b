// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "steamlink",
		Usage:   "Sign in with Steam from the terminal through a loopback callback",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: r.register(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// loginCommand runs the full Steam browser login
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with Steam through the browser",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the login URL instead of opening a browser",
			},
			&cli.BoolFlag{
				Name:  "no-verify",
				Usage: "Skip confirming the assertion with Steam",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show an interactive waiting screen",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the account as JSON",
			},
		},
		Action: r.Login,
	}
}

// listenCommand runs a bare callback listener
func listenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Wait for one callback on a loopback port and print its query",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Listen,
	}
}

// accountsCommand handles stored account operations
func accountsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "accounts",
		Aliases: []string{"account", "acc"},
		Usage:   "Manage Steam accounts that have signed in",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List accounts, most recent login first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "verified",
						Usage: "Only show accounts confirmed with Steam",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of accounts to return",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountsList,
			},
			{
				Name:  "show",
				Usage: "Show one account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "steam-id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountsShow,
			},
			{
				Name:  "export",
				Usage: "Export accounts to CSV, Markdown or text",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: accounts.<ext>)",
					},
					&cli.BoolFlag{
						Name:  "verified",
						Usage: "Only export accounts confirmed with Steam",
					},
				},
				Action: r.AccountsExport,
			},
			{
				Name:  "refresh",
				Usage: "Refresh stored profiles from the Steam Web API",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent profile lookups (max 10)",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second across all workers",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "verified",
						Usage: "Only refresh accounts confirmed with Steam",
					},
				},
				Action: r.AccountsRefresh,
			},
			{
				Name:  "remove",
				Usage: "Forget an account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "steam-id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.AccountsRemove,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
