package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/util"
)

// Bot is the part of *tgbotapi.BotAPI the router needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) analysis.Outcome
	Configured() bool
	Provider() string
	Model() string
}

// Router answers bot updates. It keeps no per-chat state: every photo is
// analyzed on its own, with its caption as patient history.
type Router struct {
	Bot      Bot
	Svc      Analyzer
	MaxBytes int64
	HTTP     *http.Client
}

const (
	startText = "Send a cardiac MRI image (JPEG, PNG or DICOM) as a photo or file and I will return a structured analysis.\n" +
		"Add a caption to pass patient history.\nCommands: /help, /health"
	helpText = "Supported inputs: photo, or a document with image/jpeg, image/png or application/dicom.\n" +
		"The caption, if any, is used as patient history.\n" +
		"Results are decision support only and are not a medical diagnosis."
)

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message
	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}
	switch {
	case len(msg.Photo) > 0:
		ph := msg.Photo[len(msg.Photo)-1]
		r.analyzeFile(ctx, msg, ph.FileID, ph.FileSize, "image/jpeg")
	case msg.Document != nil:
		doc := msg.Document
		ct, ok := documentType(doc)
		if !ok {
			r.send(msg.Chat.ID, "❌ Unsupported file type. Send a JPEG, PNG or DICOM image.")
			return
		}
		r.analyzeFile(ctx, msg, doc.FileID, doc.FileSize, ct)
	default:
		r.send(msg.Chat.ID, startText)
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		r.send(cid, startText)
	case "help":
		r.send(cid, helpText)
	case "health":
		if r.Svc.Configured() {
			r.send(cid, fmt.Sprintf("✅ OK (%s, %s)", r.Svc.Provider(), r.Svc.Model()))
		} else {
			r.send(cid, fmt.Sprintf("⚠️ %s credential is not configured", r.Svc.Provider()))
		}
	default:
		r.send(cid, "Unknown command. Try /help")
	}
}

func (r *Router) analyzeFile(ctx context.Context, msg *tgbotapi.Message, fileID string, size int, contentType string) {
	cid := msg.Chat.ID
	if r.MaxBytes > 0 && int64(size) > r.MaxBytes {
		r.send(cid, fmt.Sprintf("❌ File is too large: the limit is %d MB.", r.MaxBytes>>20))
		return
	}

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.sendError(cid, err)
		return
	}
	data, err := r.download(ctx, url)
	if err != nil {
		r.sendError(cid, err)
		return
	}

	out := r.Svc.Analyze(ctx, analysis.Input{
		Data:           data,
		ContentType:    contentType,
		PatientHistory: msg.Caption,
	})
	reply := tgbotapi.NewMessage(cid, util.Ellipsize(FormatOutcome(out), 3900))
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyToMessageID = msg.MessageID
	if _, err := r.Bot.Send(reply); err != nil {
		log.WithError(err).WithField("chat_id", cid).Warn("send analysis reply")
	}
}

func documentType(doc *tgbotapi.Document) (string, bool) {
	ct := util.NormalizeContentType(doc.MimeType)
	switch ct {
	case "image/jpeg", "image/jpg", "image/png", "application/dicom", "image/dicom":
		return ct, true
	}
	switch strings.ToLower(path.Ext(doc.FileName)) {
	case ".dcm", ".dicom":
		return util.MIMEDICOM, true
	case ".jpg", ".jpeg":
		return util.MIMEJPEG, true
	case ".png":
		return util.MIMEPNG, true
	}
	return "", false
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	body := io.Reader(resp.Body)
	if r.MaxBytes > 0 {
		// one extra byte lets the validator report the size limit
		body = io.LimitReader(resp.Body, r.MaxBytes+1)
	}
	return io.ReadAll(body)
}

func (r *Router) httpClient() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) sendError(chatID int64, err error) {
	log.WithError(err).WithField("chat_id", chatID).Warn("telegram file download failed")
	r.send(chatID, "❌ Could not download the file from Telegram, please try again.")
}
