// Command check-address runs one eligibility check against a tracked database
// and prints the audit view. Exit status: 0 passed, 1 failed, 2 error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ignite/address-eligibility/internal/app"
	"github.com/ignite/address-eligibility/internal/config"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

const (
	exitPassed = 0
	exitFailed = 1
	exitError  = 2
)

type checker interface {
	CheckAddress(ctx context.Context, req eligibility.CheckRequest) (*domain.CheckResult, error)
}

// openFunc builds a checker from a config path. The returned func releases it.
type openFunc func(ctx context.Context, configPath string) (checker, func(), error)

func openApp(ctx context.Context, configPath string) (checker, func(), error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Logging.Level, "console", "check-address")
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.Eligibility, func() { _ = a.Close() }, nil
}

func newRootCmd(open openFunc, out io.Writer, code *int) *cobra.Command {
	var (
		configPath    string
		req           eligibility.CheckRequest
		asJSON        bool
		showNormalize bool
	)

	cmd := &cobra.Command{
		Use:   "check-address",
		Short: "Checks whether an address may be enrolled.",
		Long: `Runs the blacklist, whitelist and status list checks for one address
against a tracked database and prints each step with the final verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, release, err := open(ctx, configPath)
			if err != nil {
				return err
			}
			defer release()

			res, err := c.CheckAddress(ctx, req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				view := eligibility.Presenter{IncludeNormalize: showNormalize}.Present(res)
				fmt.Fprint(out, view.String())
			}

			if res.Passed() {
				*code = exitPassed
			} else {
				*code = exitFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	f.StringVar(&req.DatabaseRef, "db", "", "tracked database reference (default from config)")
	f.StringVar(&req.Address1, "address1", "", "street line")
	f.StringVar(&req.Address2, "address2", "", "unit line")
	f.StringVar(&req.City, "city", "", "city")
	f.StringVar(&req.State, "state", "", "two-letter state code")
	f.StringVar(&req.Zip, "zip", "", "ZIP code")
	f.StringVar(&req.ProgramType, "program-type", "", "program type, e.g. LL or EBB+LL")
	f.BoolVar(&asJSON, "json", false, "print the raw check result as JSON")
	f.BoolVar(&showNormalize, "show-normalize", false, "include the normalize step in the audit view")
	for _, name := range []string{"address1", "city", "state", "zip", "program-type"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func run(args []string, open openFunc, out, errOut io.Writer) int {
	code := exitError
	cmd := newRootCmd(open, out, &code)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		switch {
		case errors.Is(err, eligibility.ErrConnection):
			fmt.Fprintf(errOut, "connection error: %v\n", err)
		case errors.Is(err, domain.ErrInvalidAddress):
			fmt.Fprintf(errOut, "invalid input: %v\n", err)
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitError
	}
	return code
}

func main() {
	code := run(os.Args[1:], openApp, os.Stdout, os.Stderr)
	logger.Sync()
	os.Exit(code)
}
