// Package main provides a CLI that validates a recorded gRPC
// remote-execution log against the expected disk-cache call sequence:
// a FindMissingBlobs containing the target digest, then at least one Write
// carrying the digest, then an Execute whose completed response lists an
// output file with the digest.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"

	"github.com/louisbranch/rexlog/internal/check"
	apperrors "github.com/louisbranch/rexlog/internal/errors"
	"github.com/louisbranch/rexlog/internal/logprint"
	"github.com/louisbranch/rexlog/internal/logproto"
	"github.com/louisbranch/rexlog/internal/platform/config"
)

const usage = "usage: check LOG_FILE FILE_HASH FILE_SIZE_BYTES"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if apperrors.IsCode(err, apperrors.CodeUsage) {
			config.Exitf(apperrors.ExitUsage, "%v\n%s", err, usage)
		}
		// The verdict goes to stdout alongside the diagnostics.
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(apperrors.ExitStatus(err))
	}
}

func run(args []string, out io.Writer) error {
	if len(args) != 3 {
		return apperrors.New(apperrors.CodeUsage, "expected three arguments: log file, file hash, file size in bytes")
	}
	size, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUsage, "file size must be an integer", err)
	}
	cfg, err := config.LoadTool()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	printer := logprint.New(out)
	printer.Quiet = cfg.Quiet
	printer.Delimiter = cfg.Delimiter

	checker := check.New(&repb.Digest{Hash: args[1], SizeBytes: size}, printer)
	return checker.Run(logproto.NewReader(f))
}
