package rpc

// InputFile references a file whose parts have all been uploaded under ID.
// MD5Checksum is only set for small files.
type InputFile struct {
	ID          int64  `json:"id"`
	Parts       int32  `json:"parts"`
	Name        string `json:"name"`
	MD5Checksum string `json:"md5_checksum,omitempty"`
	Big         bool   `json:"big,omitempty"`
}

// Attributes describes a document. Only the fields relevant to its kind
// are set.
type Attributes struct {
	FileName  string `json:"file_name,omitempty"`
	Duration  int32  `json:"duration,omitempty"`
	Width     int32  `json:"width,omitempty"`
	Height    int32  `json:"height,omitempty"`
	Round     bool   `json:"round,omitempty"`
	Video     bool   `json:"video,omitempty"`
	Audio     bool   `json:"audio,omitempty"`
	Voice     bool   `json:"voice,omitempty"`
	Performer string `json:"performer,omitempty"`
	Title     string `json:"title,omitempty"`
	Sticker   bool   `json:"sticker,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	SetName   string `json:"set_name,omitempty"`
}

// InputMedia is the media attached to a SendMedia call.
type InputMedia interface {
	mediaKind() string
}

// InputMediaUploadedDocument attaches a freshly uploaded document.
type InputMediaUploadedDocument struct {
	File       InputFile  `json:"file"`
	Thumb      *InputFile `json:"thumb,omitempty"`
	MimeType   string     `json:"mime_type"`
	Attributes Attributes `json:"attributes"`
}

// InputMediaUploadedPhoto attaches a freshly uploaded photo.
type InputMediaUploadedPhoto struct {
	File InputFile `json:"file"`
}

// InputMediaDocument attaches a document already stored by the service.
type InputMediaDocument struct {
	ID            int64  `json:"id"`
	AccessHash    int64  `json:"access_hash"`
	FileReference []byte `json:"file_reference,omitempty"`
}

// InputMediaPhoto attaches a photo already stored by the service.
type InputMediaPhoto struct {
	ID            int64  `json:"id"`
	AccessHash    int64  `json:"access_hash"`
	FileReference []byte `json:"file_reference,omitempty"`
}

func (InputMediaUploadedDocument) mediaKind() string { return "uploaded_document" }
func (InputMediaUploadedPhoto) mediaKind() string    { return "uploaded_photo" }
func (InputMediaDocument) mediaKind() string         { return "document" }
func (InputMediaPhoto) mediaKind() string            { return "photo" }

// PhotoSize is one stored size of a photo or document thumbnail.
type PhotoSize struct {
	Type   string `json:"type"`
	Width  int32  `json:"w"`
	Height int32  `json:"h"`
	Size   int64  `json:"size"`
}

// Document is a stored document as the service describes it.
type Document struct {
	ID            int64       `json:"id"`
	AccessHash    int64       `json:"access_hash"`
	FileReference []byte      `json:"file_reference,omitempty"`
	DCID          int32       `json:"dc_id"`
	Date          int64       `json:"date"`
	MimeType      string      `json:"mime_type"`
	Size          int64       `json:"size"`
	Thumbs        []PhotoSize `json:"thumbs,omitempty"`
	Attributes    Attributes  `json:"attributes"`
}

// Photo is a stored photo with all of its sizes.
type Photo struct {
	ID            int64       `json:"id"`
	AccessHash    int64       `json:"access_hash"`
	FileReference []byte      `json:"file_reference,omitempty"`
	DCID          int32       `json:"dc_id"`
	Date          int64       `json:"date"`
	Sizes         []PhotoSize `json:"sizes"`
}

// Message is the response to SendMedia. Exactly one of Document and Photo
// is set.
type Message struct {
	ID       int64     `json:"id"`
	Peer     string    `json:"peer"`
	Date     int64     `json:"date"`
	Caption  string    `json:"caption,omitempty"`
	Document *Document `json:"document,omitempty"`
	Photo    *Photo    `json:"photo,omitempty"`
}
