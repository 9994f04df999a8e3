package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	"google.golang.org/protobuf/types/known/anypb"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
	"github.com/louisbranch/rexlog/internal/logproto"
	"github.com/louisbranch/rexlog/internal/resource"
)

func writeLog(t *testing.T, entries ...*logproto.LogEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grpc.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	defer f.Close()
	w := logproto.NewWriter(f)
	for i, e := range entries {
		if err := w.Write(e); err != nil {
			t.Fatalf("write entry %d: %v", i, err)
		}
	}
	return path
}

func validSequence(t *testing.T, d *repb.Digest) []*logproto.LogEntry {
	t.Helper()
	resp, err := anypb.New(&repb.ExecuteResponse{
		Result: &repb.ActionResult{
			OutputFiles: []*repb.OutputFile{{Path: "out/copy.txt", Digest: d}},
		},
	})
	if err != nil {
		t.Fatalf("pack execute response: %v", err)
	}
	return []*logproto.LogEntry{
		{
			MethodName: "/build.bazel.remote.execution.v2.ContentAddressableStorage/FindMissingBlobs",
			Details: &logproto.RpcCallDetails{
				FindMissingBlobs: &logproto.FindMissingBlobsDetails{
					Request: &repb.FindMissingBlobsRequest{BlobDigests: []*repb.Digest{d}},
				},
			},
		},
		{
			MethodName: "/google.bytestream.ByteStream/Write",
			Details: &logproto.RpcCallDetails{
				Write: &logproto.WriteDetails{
					ResourceNames: []string{resource.UploadName("remote", "u-1", d)},
					FinishWrite:   true,
				},
			},
		},
		{
			MethodName: "/build.bazel.remote.execution.v2.Execution/Execute",
			Details: &logproto.RpcCallDetails{
				Execute: &logproto.ExecuteDetails{
					Responses: []*lrpb.Operation{
						{Name: "operations/1", Done: true, Result: &lrpb.Operation_Response{Response: resp}},
					},
				},
			},
		},
	}
}

func TestRun_Pass(t *testing.T) {
	d := &repb.Digest{Hash: "abc123", SizeBytes: 42}
	path := writeLog(t, validSequence(t, d)...)

	var out bytes.Buffer
	if err := run([]string{path, "abc123", "42"}, &out); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if !strings.Contains(out.String(), "Found first Execute, with expected digest (abc123)") {
		t.Errorf("expected pass message, got:\n%s", out.String())
	}
}

func TestRun_FailsOnWrongHash(t *testing.T) {
	d := &repb.Digest{Hash: "abc123", SizeBytes: 42}
	path := writeLog(t, validSequence(t, d)...)

	var out bytes.Buffer
	err := run([]string{path, "zzz", "42"}, &out)
	if err == nil {
		t.Fatal("expected failure for a different target digest")
	}
	if apperrors.ExitStatus(err) != apperrors.ExitFailure {
		t.Errorf("expected exit status %d, got %d", apperrors.ExitFailure, apperrors.ExitStatus(err))
	}
}

func TestRun_WrongArgumentCount(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"only-one"}, &out)
	if !apperrors.IsCode(err, apperrors.CodeUsage) {
		t.Fatalf("expected %s, got %v", apperrors.CodeUsage, err)
	}
	if apperrors.ExitStatus(err) != apperrors.ExitUsage {
		t.Errorf("expected exit status %d, got %d", apperrors.ExitUsage, apperrors.ExitStatus(err))
	}
}

func TestRun_SizeMustBeInteger(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"log", "abc123", "forty-two"}, &out)
	if !apperrors.IsCode(err, apperrors.CodeUsage) {
		t.Fatalf("expected %s, got %v", apperrors.CodeUsage, err)
	}
}

func TestRun_MissingLogFile(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{filepath.Join(t.TempDir(), "absent.log"), "abc123", "42"}, &out)
	if err == nil {
		t.Fatal("expected error for missing log file")
	}
}

func TestRun_QuietMode(t *testing.T) {
	t.Setenv("REXLOG_QUIET", "true")
	d := &repb.Digest{Hash: "abc123", SizeBytes: 42}
	path := writeLog(t, validSequence(t, d)...)

	var out bytes.Buffer
	if err := run([]string{path, "abc123", "42"}, &out); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if strings.Contains(out.String(), "method_name:") {
		t.Errorf("quiet mode should suppress entry dumps, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Found first Execute") {
		t.Errorf("quiet mode should keep verdict lines, got:\n%s", out.String())
	}
}
