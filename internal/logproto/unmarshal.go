package logproto

import (
	"fmt"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	"google.golang.org/genproto/googleapis/bytestream"
	lrpb "google.golang.org/genproto/googleapis/longrunning"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
)

// Unmarshal decodes a single LogEntry from protobuf wire format. Unknown
// fields are skipped so logs from newer writers still decode; an unknown
// details kind leaves Details nil.
func Unmarshal(b []byte) (*LogEntry, error) {
	e := &LogEntry{}
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeBadRecord, "decode log entry", err)
		}
		b = rest
		if typ != protowire.BytesType {
			continue
		}
		switch num {
		case entryMethodName:
			e.MethodName = string(v)
		case entryStatus:
			e.Status = &statuspb.Status{}
			err = proto.Unmarshal(v, e.Status)
		case entryStartTime:
			e.StartTime = &timestamppb.Timestamp{}
			err = proto.Unmarshal(v, e.StartTime)
		case entryEndTime:
			e.EndTime = &timestamppb.Timestamp{}
			err = proto.Unmarshal(v, e.EndTime)
		case entryDetails:
			e.Details, err = unmarshalDetails(v)
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeBadRecord, fmt.Sprintf("decode log entry field %d", num), err)
		}
	}
	return e, nil
}

func unmarshalDetails(b []byte) (*RpcCallDetails, error) {
	d := &RpcCallDetails{}
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		if typ != protowire.BytesType {
			continue
		}
		switch num {
		case detailsFindMissingBlobs:
			fmb := &FindMissingBlobsDetails{Request: &repb.FindMissingBlobsRequest{}, Response: &repb.FindMissingBlobsResponse{}}
			err = unmarshalCall(v, fmb.Request, fmb.Response)
			d.FindMissingBlobs = fmb
		case detailsGetActionResult:
			gar := &GetActionResultDetails{Request: &repb.GetActionResultRequest{}, Response: &repb.ActionResult{}}
			err = unmarshalCall(v, gar.Request, gar.Response)
			d.GetActionResult = gar
		case detailsUpdateActionResult:
			uar := &UpdateActionResultDetails{Request: &repb.UpdateActionResultRequest{}, Response: &repb.ActionResult{}}
			err = unmarshalCall(v, uar.Request, uar.Response)
			d.UpdateActionResult = uar
		case detailsRead:
			d.Read, err = unmarshalRead(v)
		case detailsWrite:
			d.Write, err = unmarshalWrite(v)
		case detailsExecute:
			ed := &ExecuteDetails{Request: &repb.ExecuteRequest{}}
			ed.Responses, err = unmarshalOperations(v, ed.Request)
			d.Execute = ed
		case detailsWaitExecution:
			wd := &WaitExecutionDetails{Request: &repb.WaitExecutionRequest{}}
			wd.Responses, err = unmarshalOperations(v, wd.Request)
			d.WaitExecution = wd
		case detailsGetCapabilities:
			gc := &GetCapabilitiesDetails{Request: &repb.GetCapabilitiesRequest{}, Response: &repb.ServerCapabilities{}}
			err = unmarshalCall(v, gc.Request, gc.Response)
			d.GetCapabilities = gc
		case detailsQueryWriteStatus:
			qws := &QueryWriteStatusDetails{Request: &bytestream.QueryWriteStatusRequest{}, Response: &bytestream.QueryWriteStatusResponse{}}
			err = unmarshalCall(v, qws.Request, qws.Response)
			d.QueryWriteStatus = qws
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// unmarshalCall decodes the common request/response details shape.
func unmarshalCall(b []byte, request, response proto.Message) error {
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return err
		}
		b = rest
		if typ != protowire.BytesType {
			continue
		}
		switch num {
		case callRequest:
			err = proto.Unmarshal(v, request)
		case callResponse:
			err = proto.Unmarshal(v, response)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// unmarshalOperations decodes the Execute/WaitExecution details shape.
func unmarshalOperations(b []byte, request proto.Message) ([]*lrpb.Operation, error) {
	var responses []*lrpb.Operation
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		if typ != protowire.BytesType {
			continue
		}
		switch num {
		case callRequest:
			err = proto.Unmarshal(v, request)
		case executeResponses:
			op := &lrpb.Operation{}
			if err = proto.Unmarshal(v, op); err == nil {
				responses = append(responses, op)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return responses, nil
}

func unmarshalRead(b []byte) (*ReadDetails, error) {
	d := &ReadDetails{Request: &bytestream.ReadRequest{}}
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		switch {
		case num == callRequest && typ == protowire.BytesType:
			if err := proto.Unmarshal(v, d.Request); err != nil {
				return nil, err
			}
		case num == readNumReads && typ == protowire.VarintType:
			d.NumReads = int64(varintOf(v))
		case num == readBytesRead && typ == protowire.VarintType:
			d.BytesRead = int64(varintOf(v))
		}
	}
	return d, nil
}

func unmarshalWrite(b []byte) (*WriteDetails, error) {
	d := &WriteDetails{}
	for len(b) > 0 {
		num, typ, v, rest, err := consumeField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		switch {
		case num == writeResourceNames && typ == protowire.BytesType:
			d.ResourceNames = append(d.ResourceNames, string(v))
		case num == writeOffset && typ == protowire.VarintType:
			d.Offset = int64(varintOf(v))
		case num == writeFinishWrite && typ == protowire.VarintType:
			d.FinishWrite = protowire.DecodeBool(varintOf(v))
		case num == writeNumWrites && typ == protowire.VarintType:
			d.NumWrites = int64(varintOf(v))
		case num == writeBytesSent && typ == protowire.VarintType:
			d.BytesSent = int64(varintOf(v))
		case num == writeResponse && typ == protowire.BytesType:
			d.Response = &bytestream.WriteResponse{}
			if err := proto.Unmarshal(v, d.Response); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// consumeField consumes one field from b. For varint fields, v holds the
// raw varint bytes (see varintOf); for length-delimited fields, v is the
// field payload. Other wire types return v == nil and are skipped by
// callers.
func consumeField(b []byte) (num protowire.Number, typ protowire.Type, v []byte, rest []byte, err error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, 0, nil, nil, protowire.ParseError(n)
	}
	b = b[n:]
	switch typ {
	case protowire.VarintType:
		_, n = protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, 0, nil, nil, protowire.ParseError(n)
		}
		return num, typ, b[:n], b[n:], nil
	case protowire.BytesType:
		v, n = protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, 0, nil, nil, protowire.ParseError(n)
		}
		return num, typ, v, b[n:], nil
	default:
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return 0, 0, nil, nil, protowire.ParseError(n)
		}
		return num, typ, nil, b[n:], nil
	}
}

// varintOf decodes the raw varint bytes returned by consumeField.
func varintOf(v []byte) uint64 {
	u, _ := protowire.ConsumeVarint(v)
	return u
}
