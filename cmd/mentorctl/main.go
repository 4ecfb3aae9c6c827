// Mentorctl is the command-line client for a running session dashboard or
// verifier daemon. It queries status over HTTP, streams live state changes
// over WebSocket, and can probe a verifier with sample images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/cyclopsvision/go-mentor/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Session dashboard URL")
		daemon  = pflag.StringP("daemon", "D", "http://127.0.0.1:8000", "Verifier daemon URL")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// Session commands (talk to the dashboard).
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "steps":
		err = ctl.Steps(*host, *jsonOut)

	case "watch":
		err = ctl.Watch(*host, *jsonOut)

	case "advance":
		err = ctl.Advance(*host, *jsonOut)

	case "mistake":
		reason := "flagged by operator"
		if len(subArgs) > 0 {
			reason = subArgs[0]
		}
		err = ctl.Mistake(*host, reason, *jsonOut)

	// Daemon commands (talk to the verifier).
	case "health":
		err = ctl.Health(*daemon, *jsonOut)

	case "procedures":
		err = ctl.Procedures(*daemon, *jsonOut)

	case "create":
		if len(subArgs) < 1 {
			err = fmt.Errorf("usage: mentorctl create <procedure.json>")
			break
		}
		err = ctl.CreateProcedure(*daemon, subArgs[0], *jsonOut)

	case "delete":
		if len(subArgs) < 1 {
			err = fmt.Errorf("usage: mentorctl delete <procedure-id>")
			break
		}
		err = ctl.DeleteProcedure(*daemon, subArgs[0])

	case "verify":
		opts := ctl.VerifyOptions{JSON: *jsonOut}
		vFlags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
		vFlags.StringVar(&opts.StepTitle, "title", "", "Step title for the probe")
		vFlags.StringVar(&opts.StepDescription, "description", "", "Step description for the probe")
		_ = vFlags.Parse(subArgs)
		err = ctl.Verify(*daemon, vFlags.Args(), opts)

	case "help", "-h", "--help":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`mentorctl - control and observe guided sessions

Usage:
  mentorctl [flags] <command> [args]

Session commands (against the dashboard, --host):
  status                  Current session state
  steps                   Step list with progress
  watch                   Stream live state changes
  advance                 Mark the current step done
  mistake [reason]        Flag the current step as a mistake

Daemon commands (against the verifier, --daemon):
  health                  Daemon and model health
  procedures              List stored procedures
  create <file.json>      Upload a procedure definition
  delete <procedure-id>   Remove a stored procedure
  verify [flags] <imgs>   Probe verification with image files
      --title             Step title for the probe
      --description       Step description for the probe

Flags:
  -H, --host    Session dashboard URL (default http://127.0.0.1:8080)
  -D, --daemon  Verifier daemon URL (default http://127.0.0.1:8000)
      --json    Output raw JSON
`)
}
