package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/exitcode"
	"github.com/distkit/distkit/internal/platform"
	"github.com/distkit/distkit/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <package-dir>",
	Short: "Verify an assembled package",
	Long: `Run the verification suite against an assembled package tree.

Categories run in a fixed order: structure, runtime, cli, platform,
components, integration. Individual test failures never abort the suite;
the run only errors out on infrastructure problems such as a package
directory that does not exist. The exit code is 0 exactly when every
executed case passed.

Examples:
  # Verify a package for the host platform
  distkit verify ./out/distapp --platform linux-x64

  # Skip the slow cases and the integration category
  distkit verify ./out/distapp -p linux-x64 --skip-slow --skip-category integration

  # Compile a real project with the embedded interpreter
  distkit verify ./out/distapp -p linux-x64 --test-project ./sample-project`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyPlatform    string
	verifySkip        []string
	verifySkipSlow    bool
	verifyTestProject string
	verifyCaseTimeout time.Duration
)

func init() {
	flags := verifyCmd.Flags()
	flags.StringVarP(&verifyPlatform, "platform", "p",
		envString("DISTKIT_PLATFORM", ""), "target platform the package was assembled for")
	flags.StringArrayVar(&verifySkip, "skip-category", nil,
		"category to skip (repeatable)")
	flags.BoolVar(&verifySkipSlow, "skip-slow", envBool("DISTKIT_SKIP_SLOW"),
		"skip slow test cases")
	flags.StringVar(&verifyTestProject, "test-project", "",
		"project compiled with the embedded interpreter during integration")
	flags.DurationVar(&verifyCaseTimeout, "case-timeout", 0,
		"per-case time budget (default 10s)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if verifyPlatform == "" {
		return errors.New(errors.ErrCodePlatformUnknown, "no target platform given").
			WithSuggestion("Pass --platform or set DISTKIT_PLATFORM")
	}
	target, err := platform.Parse(verifyPlatform)
	if err != nil {
		return err
	}

	engine, err := verify.NewEngine(args[0], target, verify.Options{
		Verbose:          rootVerbose,
		SkipCategories:   verifySkip,
		SkipSlow:         verifySkipSlow,
		TestProject:      verifyTestProject,
		CaseTimeout:      verifyCaseTimeout,
		MainExecutable:   envString("DISTKIT_MAIN_EXE", ""),
		ServerExecutable: envString("DISTKIT_SERVER_EXE", ""),
		Interpreter:      envString("DISTKIT_PYTHON", ""),
	})
	if err != nil {
		return err
	}

	report, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Print(report.Render(rootVerbose))

	if report.Failed() > 0 {
		exitcode.Exit(exitcode.VerificationFailed)
	}
	return nil
}
