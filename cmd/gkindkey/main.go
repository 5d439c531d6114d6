package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const defaultKeyfileName = "keyfile.hex"

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""

var app = &cli.App{
	Name:    "gkindkey",
	Usage:   "a key and statement signing tool",
	Version: version(),
	Commands: []*cli.Command{
		commandGenerate,
		commandInspect,
		commandSign,
		commandVerify,
	},
}

// Commonly used command line flags.
var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "output JSON instead of human-readable format",
}

func version() string {
	if gitCommit != "" {
		return "dev-" + gitCommit[:8]
	}
	return "dev"
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with a failure code.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// mustPrintJSON prints the JSON encoding of the given object and exits on
// marshalling failure.
func mustPrintJSON(jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Println(string(str))
}
