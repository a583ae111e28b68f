package main

import (
	"encoding/json"
	"fmt"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/spf13/cobra"
)

type decodedID struct {
	FileID string            `json:"file_id"`
	Type   string            `json:"type"`
	DC     int32             `json:"dc"`
	Fields fileid.Identifier `json:"fields"`
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode FILE_ID...",
		Short: "Print the fields of file ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, arg := range args {
				id, err := fileid.DecodeString(arg)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				if err := enc.Encode(decodedID{FileID: arg, Type: id.Type().String(), DC: id.DC(), Fields: id}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type encodeFlags struct {
	dc         int32
	id         int64
	accessHash int64
	volumeID   int64
	localID    int32
	thumbSize  string
	big        bool
	ownerID    int32
	ownerKind  int32
	ownerHash  int64
}

func newEncodeCmd() *cobra.Command {
	var f encodeFlags
	cmd := &cobra.Command{
		Use:   "encode KIND",
		Short: "Build a file id from its fields",
		Long:  "KIND is one of photo, chat_photo, photo_thumbnail, document_thumbnail, voice, video, document, sticker, audio, animation or video_note.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := fileid.ParseMediaType(args[0])
			if err != nil {
				return err
			}
			id, err := f.build(kind)
			if err != nil {
				return err
			}
			s, err := fileid.EncodeString(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().Int32Var(&f.dc, "dc", 2, "data center id")
	cmd.Flags().Int64Var(&f.id, "id", 0, "photo or document id")
	cmd.Flags().Int64Var(&f.accessHash, "access-hash", 0, "access hash")
	cmd.Flags().Int64Var(&f.volumeID, "volume", 0, "volume id")
	cmd.Flags().Int32Var(&f.localID, "local", 0, "local id")
	cmd.Flags().StringVar(&f.thumbSize, "thumb-size", "x", "one-character size code")
	cmd.Flags().BoolVar(&f.big, "big", false, "large chat photo")
	cmd.Flags().Int32Var(&f.ownerID, "owner", 0, "chat photo owner id")
	cmd.Flags().Int32Var(&f.ownerKind, "owner-kind", 0, "chat photo owner kind")
	cmd.Flags().Int64Var(&f.ownerHash, "owner-hash", 0, "chat photo owner access hash")
	return cmd
}

func (f encodeFlags) build(kind fileid.MediaType) (fileid.Identifier, error) {
	if kind == fileid.TypeChatPhoto {
		return fileid.NewChatPhoto(f.dc, f.volumeID, f.localID, f.ownerID, f.ownerKind, f.ownerHash, f.big), nil
	}
	if kind.IsPhoto() {
		code := []rune(f.thumbSize)
		if len(code) != 1 {
			return nil, fmt.Errorf("thumb size %q is not a single character", f.thumbSize)
		}
		if kind == fileid.TypePhoto {
			return fileid.NewPhoto(f.dc, f.id, f.accessHash, f.volumeID, code[0], f.localID), nil
		}
		return fileid.NewThumbnail(kind, f.dc, f.id, f.accessHash, f.volumeID, code[0], f.localID)
	}
	return fileid.NewDocument(kind, f.dc, f.id, f.accessHash)
}
