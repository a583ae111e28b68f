// Package rpc defines the calls the transfer pipeline makes against the
// remote media service and the errors the service is known to return.
package rpc

import "context"

type Method string

const (
	MethodGetFile         Method = "upload.getFile"
	MethodSaveFilePart    Method = "upload.saveFilePart"
	MethodSaveBigFilePart Method = "upload.saveBigFilePart"
	MethodSendMedia       Method = "messages.sendMedia"
)

// Request is a single call to the service.
type Request interface {
	Method() Method
}

// Response is whatever the call returns: *File for GetFile, bool for the
// part uploads and *Message for SendMedia.
type Response any

// Sender performs one call against the service. Implementations must be
// safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (Response, error)

func (f SenderFunc) Send(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// GetFile fetches up to Limit bytes of a stored object starting at Offset.
type GetFile struct {
	Location FileLocation `json:"-"`
	Offset   int64        `json:"offset"`
	Limit    int32        `json:"limit"`
}

func (*GetFile) Method() Method { return MethodGetFile }

// File is the response to GetFile. An empty Bytes slice marks the end of
// the object.
type File struct {
	Bytes []byte `json:"bytes"`
}

// SaveFilePart uploads one part of a small file.
type SaveFilePart struct {
	FileID   int64  `json:"file_id"`
	FilePart int32  `json:"file_part"`
	Bytes    []byte `json:"bytes"`
}

func (*SaveFilePart) Method() Method { return MethodSaveFilePart }

// SaveBigFilePart uploads one part of a big file. The total part count is
// repeated on every call.
type SaveBigFilePart struct {
	FileID         int64  `json:"file_id"`
	FilePart       int32  `json:"file_part"`
	FileTotalParts int32  `json:"file_total_parts"`
	Bytes          []byte `json:"bytes"`
}

func (*SaveBigFilePart) Method() Method { return MethodSaveBigFilePart }

// SendMedia posts a message carrying Media to Peer. RandomID makes the call
// idempotent on the service side.
type SendMedia struct {
	Peer     string     `json:"peer"`
	Media    InputMedia `json:"-"`
	Message  string     `json:"message,omitempty"`
	RandomID int64      `json:"random_id"`
}

func (*SendMedia) Method() Method { return MethodSendMedia }
