// Package logproto defines the gRPC remote-execution log record schema and
// its binary wire codec.
//
// A log file is a sequence of length-delimited records: each LogEntry is
// encoded as a protobuf message and prefixed with its byte length as a
// uvarint. The schema of record is remote_execution_log.proto in this
// directory; the codec here is maintained by hand against those field
// numbers so the reader can skip unknown fields from newer writers.
package logproto

import (
	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	"google.golang.org/genproto/googleapis/bytestream"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// LogEntry is one recorded RPC invocation. Entries are immutable once
// decoded; the validator consumes each entry exactly once.
type LogEntry struct {
	// MethodName is the fully qualified gRPC method name,
	// e.g. "/build.bazel.remote.execution.v2.Execution/Execute".
	MethodName string

	// Status is the final gRPC status of the call itself.
	Status *statuspb.Status

	// StartTime and EndTime bound the call on the client clock.
	StartTime *timestamppb.Timestamp
	EndTime   *timestamppb.Timestamp

	// Details carries the call-kind-specific request and response data.
	Details *RpcCallDetails
}

// RpcCallDetails is a tagged union over call kinds. At most one field is
// set; all nil means the writer logged a call kind this reader does not
// know about.
type RpcCallDetails struct {
	FindMissingBlobs   *FindMissingBlobsDetails
	GetActionResult    *GetActionResultDetails
	UpdateActionResult *UpdateActionResultDetails
	Read               *ReadDetails
	Write              *WriteDetails
	Execute            *ExecuteDetails
	WaitExecution      *WaitExecutionDetails
	GetCapabilities    *GetCapabilitiesDetails
	QueryWriteStatus   *QueryWriteStatusDetails
}

// FindMissingBlobsDetails records a ContentAddressableStorage.FindMissingBlobs call.
type FindMissingBlobsDetails struct {
	Request  *repb.FindMissingBlobsRequest
	Response *repb.FindMissingBlobsResponse
}

// GetActionResultDetails records an ActionCache.GetActionResult call.
type GetActionResultDetails struct {
	Request  *repb.GetActionResultRequest
	Response *repb.ActionResult
}

// UpdateActionResultDetails records an ActionCache.UpdateActionResult call.
type UpdateActionResultDetails struct {
	Request  *repb.UpdateActionResultRequest
	Response *repb.ActionResult
}

// ReadDetails records a ByteStream.Read call. Chunk payloads are not
// retained; only the transfer totals are.
type ReadDetails struct {
	Request   *bytestream.ReadRequest
	NumReads  int64
	BytesRead int64
}

// WriteDetails records a ByteStream.Write call. A client may attempt the
// same logical write under several resource names (e.g. after a retry), so
// the names are accumulated rather than singular. Chunk payloads are not
// retained.
type WriteDetails struct {
	ResourceNames []string
	Offset        int64
	FinishWrite   bool
	NumWrites     int64
	BytesSent     int64
	Response      *bytestream.WriteResponse
}

// ExecuteDetails records an Execution.Execute call. Responses holds every
// streamed operation state observed before the call ended, in order.
type ExecuteDetails struct {
	Request   *repb.ExecuteRequest
	Responses []*lrpb.Operation
}

// WaitExecutionDetails records an Execution.WaitExecution call.
type WaitExecutionDetails struct {
	Request   *repb.WaitExecutionRequest
	Responses []*lrpb.Operation
}

// GetCapabilitiesDetails records a Capabilities.GetCapabilities call.
type GetCapabilitiesDetails struct {
	Request  *repb.GetCapabilitiesRequest
	Response *repb.ServerCapabilities
}

// QueryWriteStatusDetails records a ByteStream.QueryWriteStatus call.
type QueryWriteStatusDetails struct {
	Request  *bytestream.QueryWriteStatusRequest
	Response *bytestream.QueryWriteStatusResponse
}
