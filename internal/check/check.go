// Package check validates that a recorded remote-execution log follows the
// expected disk-cache protocol shape: a FindMissingBlobs lookup containing a
// target digest, then at least one ByteStream Write carrying that digest in
// a resource name, then an Execute whose completed response lists an output
// file with the digest.
package check

import (
	"errors"
	"fmt"
	"io"
	"strings"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
	"github.com/louisbranch/rexlog/internal/logprint"
	"github.com/louisbranch/rexlog/internal/logproto"
	"github.com/louisbranch/rexlog/internal/operation"
)

// Stage is the validator's current expectation. Stages move strictly
// forward; there are no backward transitions.
type Stage int

const (
	StageAwaitLookup Stage = iota
	StageAwaitUpload
	StageAwaitExecute
)

// String names the call kind the stage is waiting for.
func (s Stage) String() string {
	switch s {
	case StageAwaitLookup:
		return "FindMissingBlobs"
	case StageAwaitUpload:
		return "Write"
	case StageAwaitExecute:
		return "Execute"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Verdict is the non-error outcome of one step.
type Verdict int

const (
	// VerdictContinue means the stream has more to prove.
	VerdictContinue Verdict = iota
	// VerdictPass means the full sequence matched.
	VerdictPass
)

// Calls are classified by method-name suffix only. This is deliberately
// loose: captures differ in how they qualify service names, but the final
// method segment is stable.
const (
	lookupSuffix  = "/FindMissingBlobs"
	uploadSuffix  = "/Write"
	executeSuffix = "/Execute"
)

// skippable reports whether the method is irrelevant to the protocol shape.
// Skipped entries neither advance nor reset the stage.
func skippable(method string) bool {
	return !(strings.HasSuffix(method, lookupSuffix) ||
		strings.HasSuffix(method, uploadSuffix) ||
		strings.HasSuffix(method, executeSuffix))
}

// Checker validates one log stream against one target digest.
type Checker struct {
	digest  *repb.Digest
	printer *logprint.Printer
}

// New returns a Checker for the target digest, reporting through printer.
func New(digest *repb.Digest, printer *logprint.Printer) *Checker {
	return &Checker{digest: digest, printer: printer}
}

// Run folds the step function over the entry stream. It returns nil on the
// first successful completion of the Execute stage and a coded error on the
// first violation. A stream that ends before the sequence completes is an
// explicit failure, not a silent pass.
func (c *Checker) Run(r *logproto.Reader) error {
	stage := StageAwaitLookup
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeLogExhausted,
				fmt.Sprintf("Log ended before the expected call sequence completed. Expected %s", stage))
		}
		if err != nil {
			return err
		}
		if err := c.printer.Entry(entry); err != nil {
			return err
		}
		next, verdict, err := c.step(stage, entry)
		if err != nil {
			return err
		}
		if verdict == VerdictPass {
			return nil
		}
		stage = next
	}
}

// step advances the stage for one entry. The stage is threaded explicitly:
// step owns no mutable state and is safe to drive from tests directly.
func (c *Checker) step(stage Stage, entry *logproto.LogEntry) (Stage, Verdict, error) {
	if skippable(entry.MethodName) {
		return stage, VerdictContinue, nil
	}
	switch stage {
	case StageAwaitLookup:
		return c.stepLookup(entry)
	case StageAwaitUpload:
		return c.stepUpload(entry)
	default:
		return c.stepExecute(entry)
	}
}

func (c *Checker) stepLookup(entry *logproto.LogEntry) (Stage, Verdict, error) {
	if !strings.HasSuffix(entry.MethodName, lookupSuffix) {
		return StageAwaitLookup, VerdictContinue, apperrors.New(apperrors.CodeUnexpectedMethod,
			fmt.Sprintf("Unexpected method: %s. Expected FindMissingBlobs", entry.MethodName))
	}
	if !c.lookupHasDigest(entry.Details) {
		return StageAwaitLookup, VerdictContinue, apperrors.New(apperrors.CodeLookupDigestMissing,
			fmt.Sprintf("Found FindMissingBlobs, but missing expected digest: %s", c.digest.GetHash()))
	}
	c.printer.Notef("Found first FindMissingBlobs, with expected digest (%s)", c.digest.GetHash())
	return StageAwaitUpload, VerdictContinue, nil
}

func (c *Checker) stepUpload(entry *logproto.LogEntry) (Stage, Verdict, error) {
	if !strings.HasSuffix(entry.MethodName, uploadSuffix) {
		return StageAwaitUpload, VerdictContinue, apperrors.New(apperrors.CodeUnexpectedMethod,
			fmt.Sprintf("Unexpected method: %s. Expected at least one Write for digest: %s", entry.MethodName, c.digest.GetHash()))
	}
	if !c.uploadHasDigest(entry.Details) {
		// More writes may follow; an unrelated blob upload is tolerable.
		c.printer.Notef("Found Write before first Execute, but not the expected digest yet")
		return StageAwaitUpload, VerdictContinue, nil
	}
	c.printer.Notef("Found Write with expected digest (%s)", c.digest.GetHash())
	return StageAwaitExecute, VerdictContinue, nil
}

func (c *Checker) stepExecute(entry *logproto.LogEntry) (Stage, Verdict, error) {
	if strings.HasSuffix(entry.MethodName, uploadSuffix) {
		// A matching Write was already seen; extra writes are fine.
		return StageAwaitExecute, VerdictContinue, nil
	}
	if !strings.HasSuffix(entry.MethodName, executeSuffix) {
		return StageAwaitExecute, VerdictContinue, apperrors.New(apperrors.CodeUnexpectedMethod,
			fmt.Sprintf("Unexpected method: %s. Expected Execute", entry.MethodName))
	}
	done := firstDone(executeResponses(entry.Details))
	if done == nil {
		return StageAwaitExecute, VerdictContinue, apperrors.New(apperrors.CodeNoCompletedOperation,
			"Found first Execute, but missing response with done == true")
	}
	resp := &repb.ExecuteResponse{}
	res, err := operation.Extract(done, resp)
	if err != nil {
		return StageAwaitExecute, VerdictContinue, err
	}
	if res.State != operation.StateCompleted {
		if res.State == operation.StateFailed {
			c.printer.Notef("Operation contained error: %v", status.FromProto(res.Err))
		}
		return StageAwaitExecute, VerdictContinue, apperrors.New(apperrors.CodeOperationFailed,
			"Found first Execute, but got unexpected response")
	}
	if !c.outputFilesHaveDigest(resp) {
		return StageAwaitExecute, VerdictContinue, apperrors.New(apperrors.CodeOutputDigestMissing,
			fmt.Sprintf("Found first Execute, but it is missing the expected digest (%s) in output files", c.digest.GetHash()))
	}
	c.printer.Notef("Found first Execute, with expected digest (%s) in its output files", c.digest.GetHash())
	return StageAwaitExecute, VerdictPass, nil
}

// lookupHasDigest reports whether the lookup request's blob digest list
// contains the target digest. Equality is exact on hash and size.
func (c *Checker) lookupHasDigest(d *logproto.RpcCallDetails) bool {
	if d == nil || d.FindMissingBlobs == nil {
		return false
	}
	for _, dg := range d.FindMissingBlobs.Request.GetBlobDigests() {
		if proto.Equal(dg, c.digest) {
			return true
		}
	}
	return false
}

// uploadHasDigest reports whether any resource name in the write ends with
// "<hash>/<size>".
func (c *Checker) uploadHasDigest(d *logproto.RpcCallDetails) bool {
	if d == nil || d.Write == nil {
		return false
	}
	tail := fmt.Sprintf("%s/%d", c.digest.GetHash(), c.digest.GetSizeBytes())
	for _, name := range d.Write.ResourceNames {
		if strings.HasSuffix(name, tail) {
			return true
		}
	}
	return false
}

// outputFilesHaveDigest reports whether any output file in the execute
// result carries the target digest.
func (c *Checker) outputFilesHaveDigest(resp *repb.ExecuteResponse) bool {
	for _, of := range resp.GetResult().GetOutputFiles() {
		if proto.Equal(of.GetDigest(), c.digest) {
			return true
		}
	}
	return false
}

func executeResponses(d *logproto.RpcCallDetails) []*lrpb.Operation {
	if d == nil || d.Execute == nil {
		return nil
	}
	return d.Execute.Responses
}

// firstDone returns the first completed operation in the stream order.
func firstDone(responses []*lrpb.Operation) *lrpb.Operation {
	for _, op := range responses {
		if op.GetDone() {
			return op
		}
	}
	return nil
}
