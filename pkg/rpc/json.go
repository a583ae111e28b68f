package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// JSONSerializer converts calls and their results to the JSON envelope used
// by the HTTP transport.
type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

type requestEnvelope struct {
	Method Method          `json:"method"`
	Body   json.RawMessage `json:"body"`
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// tagged carries one variant of a sealed interface.
type tagged struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

type getFileWire struct {
	Location tagged `json:"location"`
	Offset   int64  `json:"offset"`
	Limit    int32  `json:"limit"`
}

type sendMediaWire struct {
	Peer     string `json:"peer"`
	Media    tagged `json:"media"`
	Message  string `json:"message,omitempty"`
	RandomID int64  `json:"random_id"`
}

func (j *JSONSerializer) MarshalRequest(req Request) ([]byte, error) {
	var body any
	switch r := req.(type) {
	case *GetFile:
		loc, err := marshalLocation(r.Location)
		if err != nil {
			return nil, err
		}
		body = getFileWire{Location: loc, Offset: r.Offset, Limit: r.Limit}
	case *SendMedia:
		media, err := marshalMedia(r.Media)
		if err != nil {
			return nil, err
		}
		body = sendMediaWire{Peer: r.Peer, Media: media, Message: r.Message, RandomID: r.RandomID}
	case *SaveFilePart, *SaveBigFilePart:
		body = r
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestEnvelope{Method: req.Method(), Body: raw})
}

func (j *JSONSerializer) UnmarshalRequest(data []byte) (Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Method {
	case MethodGetFile:
		var w getFileWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		loc, err := unmarshalLocation(w.Location)
		if err != nil {
			return nil, err
		}
		return &GetFile{Location: loc, Offset: w.Offset, Limit: w.Limit}, nil
	case MethodSendMedia:
		var w sendMediaWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		media, err := unmarshalMedia(w.Media)
		if err != nil {
			return nil, err
		}
		return &SendMedia{Peer: w.Peer, Media: media, Message: w.Message, RandomID: w.RandomID}, nil
	case MethodSaveFilePart:
		var r SaveFilePart
		if err := json.Unmarshal(env.Body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case MethodSaveBigFilePart:
		var r SaveBigFilePart
		if err := json.Unmarshal(env.Body, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("unknown method %q", env.Method)
	}
}

// MarshalResponse encodes either a result or, when err is not nil, the
// service error describing it.
func (j *JSONSerializer) MarshalResponse(resp Response, err error) ([]byte, error) {
	if err != nil {
		code, msg := ServiceErrorOf(err)
		return json.Marshal(responseEnvelope{Error: &wireError{Code: code, Message: msg}})
	}
	raw, merr := json.Marshal(resp)
	if merr != nil {
		return nil, merr
	}
	return json.Marshal(responseEnvelope{Result: raw})
}

// UnmarshalResponse decodes the result of a call to method. A service error
// in the envelope is returned as the typed error it describes.
func (j *JSONSerializer) UnmarshalResponse(method Method, data []byte) (Response, error) {
	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, ErrorFromService(env.Error.Code, env.Error.Message)
	}

	switch method {
	case MethodGetFile:
		var f File
		if err := json.Unmarshal(env.Result, &f); err != nil {
			return nil, err
		}
		return &f, nil
	case MethodSaveFilePart, MethodSaveBigFilePart:
		var ok bool
		if err := json.Unmarshal(env.Result, &ok); err != nil {
			return nil, err
		}
		return ok, nil
	case MethodSendMedia:
		var m Message
		if err := json.Unmarshal(env.Result, &m); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func (j *JSONSerializer) Name() string {
	return "json"
}

func marshalLocation(loc FileLocation) (tagged, error) {
	if loc == nil {
		return tagged{}, errors.New("missing file location")
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return tagged{}, err
	}
	return tagged{Kind: loc.locationKind(), Value: raw}, nil
}

func unmarshalLocation(t tagged) (FileLocation, error) {
	var (
		loc FileLocation
		err error
	)
	switch t.Kind {
	case PeerPhotoLocation{}.locationKind():
		var l PeerPhotoLocation
		err = json.Unmarshal(t.Value, &l)
		loc = l
	case PhotoLocation{}.locationKind():
		var l PhotoLocation
		err = json.Unmarshal(t.Value, &l)
		loc = l
	case DocumentLocation{}.locationKind():
		var l DocumentLocation
		err = json.Unmarshal(t.Value, &l)
		loc = l
	default:
		return nil, fmt.Errorf("unknown file location %q", t.Kind)
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func marshalMedia(media InputMedia) (tagged, error) {
	if media == nil {
		return tagged{}, ErrMediaEmpty
	}
	raw, err := json.Marshal(media)
	if err != nil {
		return tagged{}, err
	}
	return tagged{Kind: media.mediaKind(), Value: raw}, nil
}

func unmarshalMedia(t tagged) (InputMedia, error) {
	var (
		media InputMedia
		err   error
	)
	switch t.Kind {
	case InputMediaUploadedDocument{}.mediaKind():
		var m InputMediaUploadedDocument
		err = json.Unmarshal(t.Value, &m)
		media = m
	case InputMediaUploadedPhoto{}.mediaKind():
		var m InputMediaUploadedPhoto
		err = json.Unmarshal(t.Value, &m)
		media = m
	case InputMediaDocument{}.mediaKind():
		var m InputMediaDocument
		err = json.Unmarshal(t.Value, &m)
		media = m
	case InputMediaPhoto{}.mediaKind():
		var m InputMediaPhoto
		err = json.Unmarshal(t.Value, &m)
		media = m
	default:
		return nil, fmt.Errorf("unknown input media %q", t.Kind)
	}
	if err != nil {
		return nil, err
	}
	return media, nil
}
