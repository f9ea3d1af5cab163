package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/apperr"
	"github.com/xaenox/mail-triage/internal/extract"
	"github.com/xaenox/mail-triage/internal/models"
	"github.com/xaenox/mail-triage/internal/responder"
	"github.com/xaenox/mail-triage/internal/service"
)

// Bot classifies emails forwarded as Telegram messages or documents.
type Bot struct {
	api        *tgbotapi.BotAPI
	svc        *service.Service
	extractor  *extract.Extractor
	httpClient *http.Client
	logger     *zap.Logger
}

func New(token string, svc *service.Service, extractor *extract.Extractor, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:        api,
		svc:        svc,
		extractor:  extractor,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	var (
		content string
		err     error
	)
	switch {
	case message.Document != nil:
		content, err = b.documentText(ctx, message.Document)
	case message.Caption != "":
		content = message.Caption
	default:
		content = message.Text
	}
	if err != nil {
		b.sendAppError(message.Chat.ID, err)
		return
	}

	res, err := b.svc.Process(ctx, content)
	if err != nil {
		b.sendAppError(message.Chat.ID, err)
		return
	}

	b.logger.Info("Classified message",
		zap.String("id", res.ID),
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("category", string(res.Category)))
	b.sendMarkdown(message.Chat.ID, message.MessageID, formatResult(res))
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "triage":
		b.handleTriage(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Comando desconhecido. Use /help para ver os comandos disponíveis.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Bem-vindo ao assistente de triagem de emails! 📬
Envie o texto de um email ou um arquivo .txt/.pdf e eu digo se ele é Produtivo ou Improdutivo, com uma sugestão de resposta.

Use /help para ver todos os comandos.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Comandos disponíveis:
/start - Iniciar o bot
/help - Mostrar esta ajuda
/triage <texto> - Classificar e sugerir resposta usando apenas a IA

Você pode enviar:
- Texto do email
- Arquivos .txt ou .pdf`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleTriage(ctx context.Context, message *tgbotapi.Message) {
	res, err := b.svc.Triage(ctx, message.CommandArguments())
	if err != nil {
		switch {
		case apperr.IsInput(err):
			b.sendErrorMessage(message.Chat.ID, "Envie o texto do email após o comando: /triage <texto>")
		case errors.Is(err, responder.ErrMissingCredential):
			b.sendErrorMessage(message.Chat.ID, "A triagem por IA não está configurada.")
		default:
			b.logger.Error("Triage failed", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
			b.sendErrorMessage(message.Chat.ID, "Não foi possível fazer a triagem agora. Tente novamente.")
		}
		return
	}

	b.sendMarkdown(message.Chat.ID, message.MessageID, formatTriage(res))
}

// documentText downloads a .txt or .pdf attachment and extracts its text.
func (b *Bot) documentText(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	if !extract.Allowed(doc.FileName) {
		return "", apperr.Input("Formato de arquivo não permitido. Use .txt ou .pdf")
	}
	if int64(doc.FileSize) > b.extractor.MaxBytes() {
		return "", apperr.Input(fmt.Sprintf("Arquivo excede o limite de %dMB", b.extractor.MaxBytes()>>20))
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", apperr.Extraction("Erro ao baixar arquivo", err)
	}
	return b.fetchDocument(ctx, url, doc.FileName)
}

func (b *Bot) fetchDocument(ctx context.Context, url, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.Extraction("Erro ao baixar arquivo", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", apperr.Extraction("Erro ao baixar arquivo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Extraction("Erro ao baixar arquivo", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return b.extractor.FromUpload(filename, resp.Body)
}

func formatResult(res *models.ClassificationResult) string {
	text := fmt.Sprintf("*Categoria:* %s\n", escapeMarkdown("#"+string(res.Category)))
	text += fmt.Sprintf("*Confiança:* %s\n", escapeMarkdown(fmt.Sprintf("%.2f%%", res.Confidence*100)))
	text += fmt.Sprintf("\n*Resposta sugerida:*\n%s", escapeMarkdown(res.Reply))
	return text
}

func formatTriage(res models.TriageResult) string {
	text := fmt.Sprintf("*Categoria:* %s\n", escapeMarkdown("#"+string(res.Category)))
	text += fmt.Sprintf("\n*Resposta sugerida:*\n%s", escapeMarkdown(res.SuggestedReply))
	return text
}

// escapeMarkdown escapes the characters reserved by MarkdownV2.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send classification response",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendAppError(chatID int64, err error) {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr) && appErr.Kind == apperr.KindInput:
		b.sendErrorMessage(chatID, appErr.Message)
	case errors.As(err, &appErr) && appErr.Kind == apperr.KindExtraction:
		b.logger.Warn("Failed to read document", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, appErr.Message)
	default:
		b.logger.Error("Failed to process message", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Não foi possível processar sua mensagem. Tente novamente.")
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
