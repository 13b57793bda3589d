package functional

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

type stateKeyType struct{}

var stateKey = stateKeyType{}

type testState struct {
	homeDir  string
	workDir  string
	binPath  string
	stdout   string
	stderr   string
	exitCode int
}

func getState(ctx context.Context) *testState {
	if s, ok := ctx.Value(stateKey).(*testState); ok {
		return s
	}
	return nil
}

func setState(ctx context.Context, s *testState) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

func TestFeatures(t *testing.T) {
	binPath := os.Getenv("RPRCHECK_TEST_BINARY")
	if binPath == "" {
		t.Skip("RPRCHECK_TEST_BINARY not set; build cmd/rprcheck and point it at the binary")
	}

	// Resolve to absolute path since go test changes the working directory
	absBin, err := filepath.Abs(binPath)
	if err != nil {
		t.Fatalf("resolving binary path: %v", err)
	}
	binPath = absBin

	opts := &godog.Options{
		Format:   "pretty",
		Paths:    []string{"features"},
		TestingT: t,
	}
	if tags := os.Getenv("RPRCHECK_TEST_TAGS"); tags != "" {
		opts.Tags = tags
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, binPath)
		},
		Options: opts,
	}
	if suite.Run() != 0 {
		t.Fatal("functional tests failed")
	}
}

func initializeScenario(ctx *godog.ScenarioContext, binPath string) {
	// Fresh home and working directory for every scenario
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		root, err := os.MkdirTemp("", "rprcheck-functional-*")
		if err != nil {
			return ctx, err
		}
		state := &testState{
			homeDir: filepath.Join(root, "home"),
			workDir: filepath.Join(root, "work"),
			binPath: binPath,
		}
		for _, dir := range []string{state.homeDir, state.workDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return ctx, err
			}
		}
		return setState(ctx, state), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state := getState(ctx); state != nil {
			os.RemoveAll(filepath.Dir(state.homeDir))
		}
		return ctx, nil
	})

	// Environment steps
	ctx.Step(`^a clean rprcheck environment$`, aCleanEnvironment)
	ctx.Step(`^a file "([^"]*)" with:$`, aFileWith)
	ctx.Step(`^a config file with:$`, aConfigFileWith)

	// Command steps
	ctx.Step(`^I run "([^"]*)"$`, iRun)

	// Assertion steps
	ctx.Step(`^the exit code is (\d+)$`, theExitCodeIs)
	ctx.Step(`^the exit code is not (\d+)$`, theExitCodeIsNot)
	ctx.Step(`^the output contains "([^"]*)"$`, theOutputContains)
	ctx.Step(`^the output does not contain "([^"]*)"$`, theOutputDoesNotContain)
	ctx.Step(`^the error output contains "([^"]*)"$`, theErrorOutputContains)
	ctx.Step(`^the JSON output field "([^"]*)" is "([^"]*)"$`, theJSONOutputFieldIs)
	ctx.Step(`^the file "([^"]*)" exists$`, theFileExists)
}
