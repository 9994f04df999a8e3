// Package main provides a CLI that dumps every record of a gRPC
// remote-execution log as human-readable text, including ExecuteResponses
// extracted from streamed operation states.
package main

import (
	"errors"
	"io"
	"os"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
	"github.com/louisbranch/rexlog/internal/logprint"
	"github.com/louisbranch/rexlog/internal/logproto"
	"github.com/louisbranch/rexlog/internal/platform/config"
)

const usage = "usage: print LOG_FILE"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if apperrors.IsCode(err, apperrors.CodeUsage) {
			config.Exitf(apperrors.ExitUsage, "%v\n%s", err, usage)
		}
		config.Exitf(apperrors.ExitStatus(err), "Error: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) != 1 {
		return apperrors.New(apperrors.CodeUsage, "expected one argument: log file")
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

	r := logproto.NewReader(f)
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := printer.Entry(entry); err != nil {
			return err
		}
	}
}
