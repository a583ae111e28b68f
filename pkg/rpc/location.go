package rpc

// FileLocation tells the service which stored object, and which size of it,
// a GetFile call reads.
type FileLocation interface {
	locationKind() string
}

// InputPeer identifies the owner of a peer photo.
type InputPeer struct {
	ID         int32 `json:"id"`
	Kind       int32 `json:"kind"`
	AccessHash int64 `json:"access_hash"`
}

// PeerPhotoLocation addresses the current photo of a user or chat.
type PeerPhotoLocation struct {
	Peer     InputPeer `json:"peer"`
	VolumeID int64     `json:"volume_id"`
	LocalID  int32     `json:"local_id"`
	Big      bool      `json:"big"`
}

// PhotoLocation addresses one size of a photo.
type PhotoLocation struct {
	ID            int64  `json:"id"`
	AccessHash    int64  `json:"access_hash"`
	FileReference []byte `json:"file_reference,omitempty"`
	ThumbSize     string `json:"thumb_size"`
}

// DocumentLocation addresses a document, or one of its thumbnails when
// ThumbSize is set.
type DocumentLocation struct {
	ID            int64  `json:"id"`
	AccessHash    int64  `json:"access_hash"`
	FileReference []byte `json:"file_reference,omitempty"`
	ThumbSize     string `json:"thumb_size,omitempty"`
}

func (PeerPhotoLocation) locationKind() string { return "peer_photo" }
func (PhotoLocation) locationKind() string     { return "photo" }
func (DocumentLocation) locationKind() string  { return "document" }
