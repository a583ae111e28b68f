package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/rescp17/mediaTransfer/api"
	"github.com/rescp17/mediaTransfer/internal/util"
	"github.com/rescp17/mediaTransfer/pkg/client"
	"github.com/rescp17/mediaTransfer/pkg/discovery"
	"github.com/rescp17/mediaTransfer/pkg/fileInfo"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
	"github.com/rescp17/mediaTransfer/pkg/ui"
	"github.com/spf13/cobra"
)

const discoverTimeout = 5 * time.Second

// connect returns a sender for the configured service, looking one up on
// the local network when no URL is set.
func connect(ctx context.Context, cfg *Config, log *slog.Logger) (*api.Client, error) {
	url := cfg.ServerURL
	if url == "" {
		lookupCtx, cancel := context.WithTimeout(ctx, discoverTimeout)
		defer cancel()

		info, err := discovery.LookupFirst(lookupCtx, &discovery.MDNSAdapter{},
			discovery.ServiceName(discovery.DefaultServerType, discovery.DefaultDomain))
		if err != nil {
			return nil, fmt.Errorf("no server given: %w", err)
		}
		url = info.URL()
		log.Info("Using discovered media service", "name", info.Name, "url", url)
	}
	return api.NewClient(uuid.NewString(), url), nil
}

// absPath makes p absolute, keeping a trailing separator that marks a
// directory.
func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) {
		abs += string(filepath.Separator)
	}
	return abs, nil
}

// resolveMedia turns an existing local path into an absolute one and
// leaves anything else, such as a file id, untouched.
func resolveMedia(arg string) string {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	if _, err := os.Stat(abs); err != nil {
		return arg
	}
	return abs
}

func newDownloadCmd(cfg *Config) *cobra.Command {
	var (
		dest     string
		checksum string
		noTUI    bool
	)
	cmd := &cobra.Command{
		Use:   "download FILE_ID...",
		Short: "Download media by file id",
		Long:  "Downloads are queued and fetched one at a time. --out names a file, or a directory when it exists or ends with a separator.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := setupLogger(*cfg, !noTUI)
			defer closeLog()

			tc, err := cfg.transferConfig()
			if err != nil {
				return err
			}
			fs := osfs.New("/")
			out, err := absPath(dest)
			if err != nil {
				return err
			}
			if out != "" && !strings.HasSuffix(out, string(filepath.Separator)) {
				exists, isDir, err := util.CheckDirectory(fs, out)
				if err != nil {
					return err
				}
				if exists && isDir {
					out += string(filepath.Separator)
				} else if len(args) > 1 {
					return errors.New("--out must be a directory when downloading several files")
				}
			}
			if checksum != "" && len(args) > 1 {
				return errors.New("--md5 checks a single download")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sender, err := connect(ctx, cfg, log)
			if err != nil {
				return err
			}

			d := transfer.NewDownloader(sender, fs, tc, transfer.WithDownloadLogger(log))
			runCtx, cancelRun := context.WithCancel(ctx)
			defer cancelRun()
			go func() {
				if err := d.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("Download worker failed", "error", err)
				}
			}()
			defer d.Close()

			var model *ui.DownloadModel
			if !noTUI {
				model = ui.NewDownloadModel(d.Registry(), d)
			}

			handles := make([]*transfer.Handle, 0, len(args))
			for _, arg := range args {
				req := transfer.DownloadRequest{FileID: arg, FileName: out}
				if noTUI {
					req.Progress = func(current, total int64) {
						log.Debug("Download progress", "file_id", arg, "current", current, "total", total)
					}
				}
				h, err := d.Enqueue(ctx, req)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				handles = append(handles, h)
			}

			if noTUI {
				err = waitDownloads(cmd.OutOrStdout(), args, handles)
			} else {
				p := tea.NewProgram(model)
				errCh := make(chan error, 1)
				go func() {
					errCh <- waitDownloads(io.Discard, args, handles)
					p.Send(ui.DoneMsg{})
				}()
				if _, err := p.Run(); err != nil {
					return err
				}
				err = <-errCh
			}
			if err != nil || checksum == "" {
				return err
			}
			return verifyDownload(fs, handles[0], checksum)
		},
	}
	cmd.Flags().StringVarP(&dest, "out", "o", "", "destination file or directory")
	cmd.Flags().StringVar(&checksum, "md5", "", "expected MD5 of the downloaded file")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "print paths instead of showing progress")
	return cmd
}

// waitDownloads prints the path of every completed download and joins the
// errors of the failed ones. Cancelled downloads are skipped.
func waitDownloads(w io.Writer, fileIDs []string, handles []*transfer.Handle) error {
	var errs []error
	for i, h := range handles {
		path, err := h.Wait(context.Background())
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", fileIDs[i], err))
		case path != "":
			fmt.Fprintln(w, path)
		}
	}
	return errors.Join(errs...)
}

// verifyDownload compares the MD5 of a completed download with want.
func verifyDownload(fs billy.Filesystem, h *transfer.Handle, want string) error {
	res, ok := h.Result()
	if !ok || res.Path == "" {
		return nil
	}
	node, err := fileInfo.CreateNode(fs, res.Path)
	if err != nil {
		return err
	}
	match, err := node.VerifyMD5(fs, strings.ToLower(want))
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("%s: checksum mismatch, got %s", res.Path, node.Checksum)
	}
	return nil
}

type sendFlags struct {
	peer      string
	caption   string
	thumb     string
	duration  int32
	length    int32
	performer string
	title     string
	emoji     string
	fileName  string
	noTUI     bool
}

func (f *sendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.peer, "peer", "me", "recipient of the message")
	cmd.Flags().StringVar(&f.caption, "caption", "", "message caption")
	cmd.Flags().StringVar(&f.thumb, "thumb", "", "local thumbnail to upload with the file")
	cmd.Flags().StringVar(&f.fileName, "file-name", "", "name to store a document under")
	cmd.Flags().BoolVar(&f.noTUI, "no-tui", false, "do not show upload progress")
}

type sendFunc func(ctx context.Context, c *client.Client, media string, progress transfer.ProgressFunc) (*client.Message, error)

func newUploadCmd(cfg *Config) *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a local file, or every file below a directory, as documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := osfs.New("/")
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			node, err := fileInfo.CreateNode(fs, root)
			if err != nil {
				return err
			}
			if _, err := node.CalcChecksum(fs); err != nil {
				return err
			}

			var items []sendItem
			for _, file := range node.Files() {
				items = append(items, sendItem{media: file.Path, checksum: file.Checksum})
			}
			if len(items) == 0 {
				return fmt.Errorf("%s: no files to upload", args[0])
			}
			return runSend(cmd, cfg, &f, items, f.sender(fileid.TypeDocument))
		},
	}
	f.register(cmd)
	return cmd
}

func newSendCmd(cfg *Config) *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send KIND PATH_OR_FILE_ID",
		Short: "Send a local file or an existing file id as media",
		Long:  "KIND is one of photo, document, audio, voice, video, animation, video_note or sticker.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := fileid.ParseMediaType(args[0])
			if err != nil {
				return err
			}
			return runSend(cmd, cfg, &f, []sendItem{{media: resolveMedia(args[1])}}, f.sender(kind))
		},
	}
	f.register(cmd)
	cmd.Flags().Int32Var(&f.duration, "duration", 0, "duration in seconds")
	cmd.Flags().Int32Var(&f.length, "length", 1, "video note width and height")
	cmd.Flags().StringVar(&f.performer, "performer", "", "audio performer")
	cmd.Flags().StringVar(&f.title, "title", "", "audio title")
	cmd.Flags().StringVar(&f.emoji, "emoji", "", "sticker emoji")
	return cmd
}

func (f *sendFlags) sender(kind fileid.MediaType) sendFunc {
	return func(ctx context.Context, c *client.Client, media string, progress transfer.ProgressFunc) (*client.Message, error) {
		thumb := ""
		if f.thumb != "" {
			thumb = resolveMedia(f.thumb)
		}

		switch kind {
		case fileid.TypeVideoNote:
			return c.SendVideoNote(ctx, f.peer, media, client.VideoNoteOptions{
				Duration: f.duration, Length: f.length, Thumb: thumb, Progress: progress,
			})
		case fileid.TypeAudio:
			return c.SendAudio(ctx, f.peer, media, client.AudioOptions{
				Caption: f.caption, Duration: f.duration, Performer: f.performer, Title: f.title,
				Thumb: thumb, Progress: progress,
			})
		case fileid.TypeDocument:
			return c.SendDocument(ctx, f.peer, media, client.DocumentOptions{
				Caption: f.caption, FileName: f.fileName, Thumb: thumb, Progress: progress,
			})
		case fileid.TypeSticker:
			return c.SendSticker(ctx, f.peer, media, client.StickerOptions{Emoji: f.emoji, Progress: progress})
		case fileid.TypePhoto:
			return c.SendPhoto(ctx, f.peer, media, f.caption, progress)
		default:
			in := client.MediaInput{
				Kind:     kind,
				Media:    media,
				Thumb:    thumb,
				Caption:  f.caption,
				Progress: progress,
			}
			in.Attributes.Duration = f.duration
			in.Attributes.FileName = filepath.Base(media)
			switch kind {
			case fileid.TypeVoice:
				in.Attributes.Audio, in.Attributes.Voice = true, true
			case fileid.TypeVideo, fileid.TypeAnimation:
				in.Attributes.Video = true
			}
			return c.SendMedia(ctx, f.peer, in)
		}
	}
}

// sendItem is one piece of media for runSend. checksum, when known, is
// printed with the result.
type sendItem struct {
	media    string
	checksum string
}

func runSend(cmd *cobra.Command, cfg *Config, f *sendFlags, items []sendItem, send sendFunc) error {
	log, closeLog := setupLogger(*cfg, !f.noTUI)
	defer closeLog()

	tc, err := cfg.transferConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sender, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	c := client.New(sender, osfs.New("/"), tc, client.WithLogger(log))

	for _, item := range items {
		var msg *client.Message
		if f.noTUI {
			msg, err = send(ctx, c, item.media, nil)
		} else {
			msg, err = sendWithProgress(ctx, c, item.media, send)
		}
		if err != nil {
			if len(items) > 1 {
				return fmt.Errorf("%s: %w", item.media, err)
			}
			return err
		}
		printMessage(cmd.OutOrStdout(), msg, item.checksum)
		if msg == nil {
			return nil
		}
	}
	return nil
}

func sendWithProgress(ctx context.Context, c *client.Client, media string, send sendFunc) (*client.Message, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		msg *client.Message
		err error
	}

	p := tea.NewProgram(ui.NewUploadModel(filepath.Base(media), cancel))
	resCh := make(chan result, 1)
	go func() {
		msg, err := send(ctx, c, media, func(current, total int64) {
			p.Send(ui.ProgressMsg{Current: current, Total: total})
		})
		resCh <- result{msg, err}
		p.Send(ui.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-resCh
		return nil, err
	}
	r := <-resCh
	return r.msg, r.err
}

func printMessage(w io.Writer, msg *client.Message, checksum string) {
	if msg == nil {
		fmt.Fprintln(w, "Send cancelled")
		return
	}
	fmt.Fprintf(w, "Message %d sent to %s\n", msg.ID, msg.Peer)
	if media, ok := msg.Media(); ok {
		fmt.Fprintf(w, "file id: %s\n", media.FileID)
	}
	if checksum != "" {
		fmt.Fprintf(w, "md5: %s\n", checksum)
	}
}
