package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/printkit/cmd/printkit/cmd"
	"github.com/MeKo-Tech/printkit/internal/testutil"
	"github.com/cucumber/godog"
)

// iRunCommand runs a printkit command line in-process with a fresh command
// tree, inside the scenario temp directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "printkit" {
		return fmt.Errorf("unsupported command %q", parts[0])
	}

	restore, err := testCtx.enterEnvironment()
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(testCtx.Stdin))
	root.SetArgs(parts[1:])

	err = root.ExecuteContext(ctx)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)
	testCtx.Stdin = ""

	if err != nil {
		testCtx.LastExitCode = 1
	} else {
		testCtx.LastExitCode = 0
	}
	return nil
}

// iRunCommandWithInput runs a command with the doc string as stdin.
func (testCtx *TestContext) iRunCommandWithInput(command string, input *godog.DocString) error {
	testCtx.Stdin = input.Content + "\n"
	return testCtx.iRunCommand(command)
}

// enterEnvironment switches into the temp directory and applies scenario
// environment variables, returning a func that undoes both.
func (testCtx *TestContext) enterEnvironment() (func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}

	type saved struct {
		value string
		ok    bool
	}
	previous := make(map[string]saved, len(testCtx.EnvVars))
	for name, value := range testCtx.EnvVars {
		old, ok := os.LookupEnv(name)
		previous[name] = saved{old, ok}
		_ = os.Setenv(name, value)
	}

	return func() {
		for name, s := range previous {
			if s.ok {
				_ = os.Setenv(name, s.value)
			} else {
				_ = os.Unsetenv(name)
			}
		}
		_ = os.Chdir(wd)
	}, nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBe compares the output line by line, ignoring CR.
func (testCtx *TestContext) theOutputShouldBe(expected *godog.DocString) error {
	got := strings.TrimRight(strings.ReplaceAll(testCtx.LastOutput, "\r\n", "\n"), "\n")
	want := strings.TrimRight(expected.Content, "\n")
	if got != want {
		return fmt.Errorf("output mismatch\nExpected:\n%s\nActual:\n%s", want, got)
	}
	return nil
}

// stderrShouldContain verifies the diagnostic output contains specific text.
func (testCtx *TestContext) stderrShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastStderr, expectedText) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", expectedText, testCtx.LastStderr)
	}
	return nil
}

// stderrShouldNotContain verifies the diagnostic output lacks specific text.
func (testCtx *TestContext) stderrShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("stderr unexpectedly contains '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := parseJSON(testCtx.LastOutput)
	return err
}

// theJSONShouldContain verifies JSON output contains a specific field.
func (testCtx *TestContext) theJSONShouldContain(field string) error {
	data, err := parseJSON(testCtx.LastOutput)
	if err != nil {
		return err
	}
	_, err = lookupField(data, field)
	return err
}

// theErrorShouldMention verifies the error message contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}

	fullErrorText := testCtx.LastOutput + " " + testCtx.LastStderr
	if testCtx.LastError != nil {
		fullErrorText += " " + testCtx.LastError.Error()
	}

	if !strings.Contains(strings.ToLower(fullErrorText), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, fullErrorText)
	}
	return nil
}

// aFileWithContent writes a file into the scenario temp directory.
func (testCtx *TestContext) aFileWithContent(name string, content *godog.DocString) error {
	path := testCtx.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, []byte(content.Content+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	testCtx.TrackFile(path)
	return nil
}

// theFileShouldExist verifies a file was written.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.path(name)) {
		return fmt.Errorf("file %s does not exist", name)
	}
	return nil
}

// theFileShouldContain verifies a file contains specific text.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s", name, text, data)
	}
	return nil
}

// theEnvironmentVariableIsSet records an environment variable for later commands.
func (testCtx *TestContext) theEnvironmentVariableIsSet(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// parseJSON decodes the first JSON document found in output.
func parseJSON(output string) (any, error) {
	output = strings.TrimSpace(output)
	start := strings.IndexAny(output, "{[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON found in output: %s", output)
	}

	var data any
	if err := json.Unmarshal([]byte(output[start:]), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nJSON part: %s", err, output[start:])
	}
	return data, nil
}

// lookupField walks a dotted path such as "result.symbols" or "items.0.code".
func lookupField(data any, field string) (any, error) {
	current := data
	for i, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			val, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in JSON", strings.Join(strings.Split(field, ".")[:i+1], "."))
			}
			current = val
		case []any:
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("invalid array index '%s' in '%s'", part, field)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot navigate into non-object field at '%s'", part)
		}
	}
	return current, nil
}

// RegisterCommonSteps registers CLI step definitions.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be:$`, testCtx.theOutputShouldBe)
	sc.Step(`^stderr should contain "([^"]*)"$`, testCtx.stderrShouldContain)
	sc.Step(`^stderr should not contain "([^"]*)"$`, testCtx.stderrShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^a file "([^"]*)" with content:$`, testCtx.aFileWithContent)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSet)
}
