package logprint

import (
	"bytes"
	"strings"
	"testing"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/anypb"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
	"github.com/louisbranch/rexlog/internal/logproto"
)

func executeEntry(t *testing.T, responses ...*lrpb.Operation) *logproto.LogEntry {
	t.Helper()
	return &logproto.LogEntry{
		MethodName: "/build.bazel.remote.execution.v2.Execution/Execute",
		Details: &logproto.RpcCallDetails{
			Execute: &logproto.ExecuteDetails{
				Request:   &repb.ExecuteRequest{InstanceName: "remote"},
				Responses: responses,
			},
		},
	}
}

func doneOp(t *testing.T) *lrpb.Operation {
	t.Helper()
	resp, err := anypb.New(&repb.ExecuteResponse{Result: &repb.ActionResult{ExitCode: 0}})
	if err != nil {
		t.Fatalf("pack execute response: %v", err)
	}
	return &lrpb.Operation{Name: "operations/1", Done: true, Result: &lrpb.Operation_Response{Response: resp}}
}

func TestEntry_ExtractsExecuteResponse(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)

	if err := p.Entry(executeEntry(t, doneOp(t))); err != nil {
		t.Fatalf("print entry: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"method_name:",
		"Attempted to extract ExecuteResponse from streaming Execute call responses:",
		"ExecuteResponse extracted",
		Delimiter,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestEntry_PrintsOperationError(t *testing.T) {
	failed := &lrpb.Operation{
		Name: "operations/1",
		Done: true,
		Result: &lrpb.Operation_Error{
			Error: &statuspb.Status{Code: int32(codes.Unavailable), Message: "worker gone"},
		},
	}
	var out bytes.Buffer
	p := New(&out)

	if err := p.Entry(executeEntry(t, failed)); err != nil {
		t.Fatalf("print entry: %v", err)
	}
	if !strings.Contains(out.String(), "ExecuteResponse contained error") {
		t.Errorf("expected operation error line, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "worker gone") {
		t.Errorf("expected error message in output, got:\n%s", out.String())
	}
}

func TestEntry_WaitExecutionResponses(t *testing.T) {
	entry := &logproto.LogEntry{
		MethodName: "/build.bazel.remote.execution.v2.Execution/WaitExecution",
		Details: &logproto.RpcCallDetails{
			WaitExecution: &logproto.WaitExecutionDetails{
				Request:   &repb.WaitExecutionRequest{Name: "operations/1"},
				Responses: []*lrpb.Operation{doneOp(t)},
			},
		},
	}
	var out bytes.Buffer
	p := New(&out)

	if err := p.Entry(entry); err != nil {
		t.Fatalf("print entry: %v", err)
	}
	if !strings.Contains(out.String(), "streaming WaitExecution call responses") {
		t.Errorf("expected WaitExecution extraction header, got:\n%s", out.String())
	}
}

func TestEntry_WrongPayloadTypeFails(t *testing.T) {
	wrong, err := anypb.New(&repb.Digest{Hash: "abc", SizeBytes: 1})
	if err != nil {
		t.Fatalf("pack digest: %v", err)
	}
	bad := &lrpb.Operation{Name: "operations/1", Done: true, Result: &lrpb.Operation_Response{Response: wrong}}

	var out bytes.Buffer
	p := New(&out)
	perr := p.Entry(executeEntry(t, bad))
	if !apperrors.IsCode(perr, apperrors.CodeBadPayload) {
		t.Fatalf("expected %s, got %v", apperrors.CodeBadPayload, perr)
	}
}

func TestEntry_WriteDigestSummary(t *testing.T) {
	entry := &logproto.LogEntry{
		MethodName: "/google.bytestream.ByteStream/Write",
		Details: &logproto.RpcCallDetails{
			Write: &logproto.WriteDetails{
				ResourceNames: []string{"remote/uploads/u-1/blobs/abc123/42"},
				FinishWrite:   true,
				BytesSent:     42,
			},
		},
	}
	var out bytes.Buffer
	p := New(&out)

	if err := p.Entry(entry); err != nil {
		t.Fatalf("print entry: %v", err)
	}
	if !strings.Contains(out.String(), "digest: abc123/42") {
		t.Errorf("expected parsed digest summary, got:\n%s", out.String())
	}
}

func TestEntry_QuietSuppressesDump(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)
	p.Quiet = true

	if err := p.Entry(executeEntry(t, doneOp(t))); err != nil {
		t.Fatalf("print entry: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got:\n%s", out.String())
	}
}

func TestNotef_AppendsDelimiter(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)

	p.Notef("Found Write with expected digest (%s)", "abc123")

	want := "Found Write with expected digest (abc123)\n" + Delimiter
	if out.String() != want {
		t.Errorf("Notef output %q, want %q", out.String(), want)
	}
}

func TestNotef_CustomDelimiter(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)
	p.Delimiter = "====\n"

	p.Notef("note")

	if out.String() != "note\n====\n" {
		t.Errorf("Notef output %q", out.String())
	}
}
