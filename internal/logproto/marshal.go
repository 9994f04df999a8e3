package logproto

import (
	"fmt"

	lrpb "google.golang.org/genproto/googleapis/longrunning"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// Field numbers from remote_execution_log.proto.
const (
	entryMethodName protowire.Number = 1
	entryStatus     protowire.Number = 2
	entryStartTime  protowire.Number = 3
	entryEndTime    protowire.Number = 4
	entryDetails    protowire.Number = 5

	detailsFindMissingBlobs   protowire.Number = 1
	detailsGetActionResult    protowire.Number = 2
	detailsUpdateActionResult protowire.Number = 3
	detailsRead               protowire.Number = 4
	detailsWrite              protowire.Number = 5
	detailsExecute            protowire.Number = 6
	detailsWaitExecution      protowire.Number = 7
	detailsGetCapabilities    protowire.Number = 8
	detailsQueryWriteStatus   protowire.Number = 9

	callRequest  protowire.Number = 1
	callResponse protowire.Number = 2

	readNumReads  protowire.Number = 2
	readBytesRead protowire.Number = 3

	writeResourceNames protowire.Number = 1
	writeOffset        protowire.Number = 2
	writeFinishWrite   protowire.Number = 3
	writeNumWrites     protowire.Number = 4
	writeBytesSent     protowire.Number = 5
	writeResponse      protowire.Number = 6

	executeResponses protowire.Number = 2
)

// Marshal encodes the entry in protobuf wire format.
func (e *LogEntry) Marshal() ([]byte, error) {
	var b []byte
	if e.MethodName != "" {
		b = protowire.AppendTag(b, entryMethodName, protowire.BytesType)
		b = protowire.AppendString(b, e.MethodName)
	}
	var err error
	if b, err = appendMessage(b, entryStatus, e.Status); err != nil {
		return nil, err
	}
	if b, err = appendMessage(b, entryStartTime, e.StartTime); err != nil {
		return nil, err
	}
	if b, err = appendMessage(b, entryEndTime, e.EndTime); err != nil {
		return nil, err
	}
	if e.Details != nil {
		d, err := e.Details.marshal()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, entryDetails, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	}
	return b, nil
}

func (d *RpcCallDetails) marshal() ([]byte, error) {
	set := 0
	var num protowire.Number
	var body []byte
	var err error
	if d.FindMissingBlobs != nil {
		set++
		num = detailsFindMissingBlobs
		body, err = marshalCall(d.FindMissingBlobs.Request, d.FindMissingBlobs.Response)
	}
	if d.GetActionResult != nil {
		set++
		num = detailsGetActionResult
		body, err = marshalCall(d.GetActionResult.Request, d.GetActionResult.Response)
	}
	if d.UpdateActionResult != nil {
		set++
		num = detailsUpdateActionResult
		body, err = marshalCall(d.UpdateActionResult.Request, d.UpdateActionResult.Response)
	}
	if d.Read != nil {
		set++
		num = detailsRead
		body, err = d.Read.marshal()
	}
	if d.Write != nil {
		set++
		num = detailsWrite
		body, err = d.Write.marshal()
	}
	if d.Execute != nil {
		set++
		num = detailsExecute
		body, err = marshalOperations(d.Execute.Request, d.Execute.Responses)
	}
	if d.WaitExecution != nil {
		set++
		num = detailsWaitExecution
		body, err = marshalOperations(d.WaitExecution.Request, d.WaitExecution.Responses)
	}
	if d.GetCapabilities != nil {
		set++
		num = detailsGetCapabilities
		body, err = marshalCall(d.GetCapabilities.Request, d.GetCapabilities.Response)
	}
	if d.QueryWriteStatus != nil {
		set++
		num = detailsQueryWriteStatus
		body, err = marshalCall(d.QueryWriteStatus.Request, d.QueryWriteStatus.Response)
	}
	if err != nil {
		return nil, err
	}
	if set > 1 {
		return nil, fmt.Errorf("details is a oneof: %d kinds set", set)
	}
	if set == 0 {
		return nil, nil
	}
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, body), nil
}

// marshalCall encodes the common request/response details shape.
func marshalCall(request, response proto.Message) ([]byte, error) {
	b, err := appendMessage(nil, callRequest, request)
	if err != nil {
		return nil, err
	}
	return appendMessage(b, callResponse, response)
}

// marshalOperations encodes the Execute/WaitExecution details shape, whose
// response is a stream of operation states.
func marshalOperations(request proto.Message, responses []*lrpb.Operation) ([]byte, error) {
	b, err := appendMessage(nil, callRequest, request)
	if err != nil {
		return nil, err
	}
	for _, op := range responses {
		if b, err = appendMessage(b, executeResponses, op); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *ReadDetails) marshal() ([]byte, error) {
	b, err := appendMessage(nil, callRequest, d.Request)
	if err != nil {
		return nil, err
	}
	if d.NumReads != 0 {
		b = protowire.AppendTag(b, readNumReads, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.NumReads))
	}
	if d.BytesRead != 0 {
		b = protowire.AppendTag(b, readBytesRead, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.BytesRead))
	}
	return b, nil
}

func (d *WriteDetails) marshal() ([]byte, error) {
	var b []byte
	for _, name := range d.ResourceNames {
		b = protowire.AppendTag(b, writeResourceNames, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	if d.Offset != 0 {
		b = protowire.AppendTag(b, writeOffset, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.Offset))
	}
	if d.FinishWrite {
		b = protowire.AppendTag(b, writeFinishWrite, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(d.FinishWrite))
	}
	if d.NumWrites != 0 {
		b = protowire.AppendTag(b, writeNumWrites, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.NumWrites))
	}
	if d.BytesSent != 0 {
		b = protowire.AppendTag(b, writeBytesSent, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.BytesSent))
	}
	return appendMessage(b, writeResponse, d.Response)
}

// appendMessage appends m as a length-delimited field. Nil messages are
// omitted entirely, matching proto3 absence semantics.
func appendMessage(b []byte, num protowire.Number, m proto.Message) ([]byte, error) {
	if m == nil || !m.ProtoReflect().IsValid() {
		return b, nil
	}
	body, err := proto.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal field %d: %w", num, err)
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body), nil
}
