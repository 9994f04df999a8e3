// Package logprint renders decoded log entries as line-oriented diagnostic
// text for operator inspection.
package logprint

import (
	"fmt"
	"io"
	"strings"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"github.com/louisbranch/rexlog/internal/logproto"
	"github.com/louisbranch/rexlog/internal/operation"
	"github.com/louisbranch/rexlog/internal/resource"
)

// Delimiter separates entry blocks in the output.
const Delimiter = "---------------------------------------------------------\n"

// Printer writes entry dumps and progress notes to Out.
type Printer struct {
	Out io.Writer
	// Delimiter overrides the block separator; empty means Delimiter.
	Delimiter string
	// Quiet suppresses per-entry dumps. Notes and verdict lines are still
	// written.
	Quiet bool
}

// New returns a Printer writing to out with the default delimiter.
func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

func (p *Printer) delimiter() string {
	if p.Delimiter != "" {
		return p.Delimiter
	}
	return Delimiter
}

// Notef writes a progress note followed by the delimiter line.
func (p *Printer) Notef(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
	fmt.Fprint(p.Out, p.delimiter())
}

// Entry dumps one log entry followed by the delimiter line. For Execute and
// WaitExecution entries it also attempts to extract an ExecuteResponse from
// each streamed operation. A response payload of the wrong embedded type is
// a defect in the capture and is returned as an error.
func (p *Printer) Entry(e *logproto.LogEntry) error {
	if p.Quiet {
		return nil
	}
	fmt.Fprintf(p.Out, "method_name: %q\n", e.MethodName)
	p.compact("status", e.Status)
	p.compact("start_time", e.StartTime)
	p.compact("end_time", e.EndTime)
	if err := p.details(e.Details); err != nil {
		return err
	}
	fmt.Fprint(p.Out, p.delimiter())
	return nil
}

func (p *Printer) details(d *logproto.RpcCallDetails) error {
	switch {
	case d == nil:
	case d.FindMissingBlobs != nil:
		p.message("find_missing_blobs request", d.FindMissingBlobs.Request)
		p.message("find_missing_blobs response", d.FindMissingBlobs.Response)
	case d.GetActionResult != nil:
		p.message("get_action_result request", d.GetActionResult.Request)
		p.message("get_action_result response", d.GetActionResult.Response)
	case d.UpdateActionResult != nil:
		p.message("update_action_result request", d.UpdateActionResult.Request)
		p.message("update_action_result response", d.UpdateActionResult.Response)
	case d.Read != nil:
		p.message("read request", d.Read.Request)
		fmt.Fprintf(p.Out, "read totals: num_reads: %d bytes_read: %d\n", d.Read.NumReads, d.Read.BytesRead)
	case d.Write != nil:
		p.write(d.Write)
	case d.Execute != nil:
		p.message("execute request", d.Execute.Request)
		fmt.Fprintln(p.Out, "\nAttempted to extract ExecuteResponse from streaming Execute call responses:")
		return p.executeResponses(d.Execute.Responses)
	case d.WaitExecution != nil:
		p.message("wait_execution request", d.WaitExecution.Request)
		fmt.Fprintln(p.Out, "\nAttempted to extract ExecuteResponse from streaming WaitExecution call responses:")
		return p.executeResponses(d.WaitExecution.Responses)
	case d.GetCapabilities != nil:
		p.message("get_capabilities request", d.GetCapabilities.Request)
		p.message("get_capabilities response", d.GetCapabilities.Response)
	case d.QueryWriteStatus != nil:
		p.message("query_write_status request", d.QueryWriteStatus.Request)
		p.message("query_write_status response", d.QueryWriteStatus.Response)
	}
	return nil
}

func (p *Printer) write(w *logproto.WriteDetails) {
	for _, name := range w.ResourceNames {
		fmt.Fprintf(p.Out, "resource_name: %q\n", name)
		if d, ok := resource.ParseDigest(name); ok {
			fmt.Fprintf(p.Out, "  digest: %s/%d\n", d.GetHash(), d.GetSizeBytes())
		}
	}
	fmt.Fprintf(p.Out, "write totals: offset: %d finish_write: %t num_writes: %d bytes_sent: %d\n",
		w.Offset, w.FinishWrite, w.NumWrites, w.BytesSent)
	p.message("write response", w.Response)
}

// executeResponses extracts and prints an ExecuteResponse from every
// operation in the responses list, printing the operation error instead for
// failed operations.
func (p *Printer) executeResponses(responses []*lrpb.Operation) error {
	for _, op := range responses {
		resp := &repb.ExecuteResponse{}
		res, err := operation.Extract(op, resp)
		if err != nil {
			return err
		}
		switch res.State {
		case operation.StateCompleted:
			p.message("ExecuteResponse extracted", resp)
		case operation.StateFailed:
			fmt.Fprintf(p.Out, "ExecuteResponse contained error: %v\n", status.FromProto(res.Err))
		}
	}
	return nil
}

// message prints a labeled multiline prototext dump, skipping nil messages.
func (p *Printer) message(label string, m proto.Message) {
	if m == nil || !m.ProtoReflect().IsValid() {
		return
	}
	text := prototext.MarshalOptions{Multiline: true, Indent: "  "}.Format(m)
	fmt.Fprintf(p.Out, "%s:\n%s", label, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(p.Out)
	}
}

// compact prints a labeled single-line prototext dump, skipping nil messages.
func (p *Printer) compact(label string, m proto.Message) {
	if m == nil || !m.ProtoReflect().IsValid() {
		return
	}
	fmt.Fprintf(p.Out, "%s: { %s }\n", label, prototext.MarshalOptions{}.Format(m))
}
