// Package operation extracts typed results from long-running operation
// envelopes.
//
// An operation is pending, done with an error, or done with a type-erased
// response payload. Extraction distinguishes "still running" from "the
// capture embeds a payload of the wrong type": the former is a normal state,
// the latter is a decode error in the log artifact.
package operation

import (
	"fmt"

	lrpb "google.golang.org/genproto/googleapis/longrunning"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/proto"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
)

// State classifies an operation's result.
type State int

const (
	// StatePending means the operation is not done, or is done but carries
	// neither a usable response nor an error.
	StatePending State = iota
	// StateFailed means the operation completed with a non-OK error.
	StateFailed
	// StateCompleted means the operation completed and its response
	// unpacked into the destination message.
	StateCompleted
)

// Result is the outcome of extracting an operation.
type Result struct {
	State State
	// Err is the operation's error status when State is StateFailed.
	Err *statuspb.Status
}

// Extract inspects op and, when it carries a completed response, unpacks the
// payload into dst. An error whose code is OK is not authoritative and falls
// through to the response check, matching longrunning semantics. A response
// that cannot unpack as dst's type is returned as an error, never as
// StatePending.
func Extract(op *lrpb.Operation, dst proto.Message) (Result, error) {
	if op == nil {
		return Result{State: StatePending}, nil
	}
	if errSt := op.GetError(); errSt != nil && codes.Code(errSt.GetCode()) != codes.OK {
		return Result{State: StateFailed, Err: errSt}, nil
	}
	if resp := op.GetResponse(); resp != nil && op.GetDone() {
		if err := resp.UnmarshalTo(dst); err != nil {
			return Result{}, apperrors.Wrap(apperrors.CodeBadPayload,
				fmt.Sprintf("unpack operation response as %s", dst.ProtoReflect().Descriptor().FullName()), err)
		}
		return Result{State: StateCompleted}, nil
	}
	return Result{State: StatePending}, nil
}
