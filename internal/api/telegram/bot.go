package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "malaria-scan/internal/application"
	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
	"malaria-scan/internal/logger"
)

const (
	component = "TelegramBot"

	// Telegram не принимает фото больше 10MB и сторону больше 10000px.
	maxPreviewSide = 1280

	msgStart = `👋 Привет! Я бот для подсчёта клеток крови и поиска заражённых малярией.

📄 Отправьте /analyze, а затем DICOM-файл (.dcm) мазка крови.

📋 Команды:
/analyze — начать анализ снимка
/last — результат последнего анализа
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /analyze, а затем снимок в формате DICOM (.dcm) как документ
2️⃣ Бот найдёт клетки и проверит каждую на заражение
3️⃣ Вы получите сводку и снимок, где заражённые клетки обведены красным

📋 Команды:
/analyze — начать анализ
/last — последний результат
/cancel — отменить операцию`

	msgAwaitingScan    = "📄 Отправьте DICOM-файл (.dcm) документом."
	msgCancelled       = "❌ Операция отменена. Отправьте /analyze для нового анализа."
	msgSendScan        = "📄 Пожалуйста, отправьте DICOM-файл (.dcm) документом."
	msgNotDicom        = "⚠️ Поддерживаются только файлы .dcm."
	msgAnalyzeFirst    = "📄 Чтобы проанализировать снимок, сначала отправьте /analyze."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую снимок..."
	msgBusy            = "⏳ Предыдущий снимок ещё анализируется, подождите."
	msgNoAnalyses      = "Вы ещё не проводили анализ. Отправьте /analyze."
	msgProcessingError = "⚠️ Не удалось проанализировать снимок. Проверьте файл и попробуйте снова."
)

// botAPI содержит вызовы Telegram Bot API, которыми пользуется бот.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api        botAPI
	httpClient *http.Client
	users      *app.UserService
	analyzer   port.ScanAnalyzer
	store      port.ScanStore
	describer  port.ResultDescriber
	log        logger.Logger
	timeout    time.Duration

	// анализы идут в фоне, пока цикл принимает новые сообщения
	inflight sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, analyzer port.ScanAnalyzer, store port.ScanStore,
	describer port.ResultDescriber, log logger.Logger, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info(component, "authorized", map[string]interface{}{"account": api.Self.UserName})

	return newBot(api, users, analyzer, store, describer, log, timeout), nil
}

func newBot(api botAPI, users *app.UserService, analyzer port.ScanAnalyzer, store port.ScanStore,
	describer port.ResultDescriber, log logger.Logger, timeout time.Duration) *Bot {
	return &Bot{
		api:        api,
		httpClient: &http.Client{Timeout: timeout},
		users:      users,
		analyzer:   analyzer,
		store:      store,
		describer:  describer,
		log:        log,
		timeout:    timeout,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error(component, err, map[string]interface{}{"user_id": msg.From.ID})
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка DICOM-документа
	if msg.Document != nil {
		b.handleDocument(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendScan)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "analyze", "check":
		if user.State == entity.StateProcessing {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		b.users.BeginAnalysis(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgAwaitingScan)

	case "last":
		b.handleLast(ctx, msg, user)

	case "cancel":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleDocument принимает снимок в состоянии ожидания и запускает анализ в фоне
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch user.State {
	case entity.StateProcessing:
		b.sendMessage(msg.Chat.ID, msgBusy)
		return
	case entity.StateAwaitingScan:
	default:
		b.sendMessage(msg.Chat.ID, msgAnalyzeFirst)
		return
	}
	if !strings.EqualFold(filepath.Ext(msg.Document.FileName), ".dcm") {
		b.sendMessage(msg.Chat.ID, msgNotDicom)
		return
	}

	if err := b.users.StartProcessing(ctx, user.ID); err != nil {
		b.log.Error(component, err, map[string]interface{}{"user_id": user.ID})
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	b.sendMessage(msg.Chat.ID, msgProcessing)

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.processScan(ctx, msg.Chat.ID, user, msg.Document.FileID, msg.Document.FileName)
	}()
}

// processScan скачивает снимок, анализирует его и отправляет результат
func (b *Bot) processScan(ctx context.Context, chatID int64, user *entity.User, fileID, filename string) {
	analysisID := ""
	defer func() {
		if _, err := b.users.FinishAnalysis(ctx, user.ID, user.ChatID, analysisID); err != nil {
			b.log.Error(component, err, map[string]interface{}{"user_id": user.ID})
		}
	}()

	scanPath, err := b.downloadFile(ctx, fileID, filename)
	if err != nil {
		b.log.Error(component, err, map[string]interface{}{"user_id": user.ID})
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	actx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	result, err := b.analyzer.Analyze(actx, scanPath)
	if err != nil {
		b.log.Error(component, err, map[string]interface{}{"user_id": user.ID, "scan": scanPath})
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	analysisID = result.ID

	b.sendResult(ctx, chatID, result)
}

func (b *Bot) handleLast(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if user.LastAnalysisID == "" {
		b.sendMessage(msg.Chat.ID, msgNoAnalyses)
		return
	}
	result, err := b.analyzer.Get(ctx, user.LastAnalysisID)
	if err != nil {
		b.log.Error(component, err, map[string]interface{}{"analysis_id": user.LastAnalysisID})
		b.sendMessage(msg.Chat.ID, msgNoAnalyses)
		return
	}
	b.sendResult(ctx, msg.Chat.ID, result)
}

// sendResult отправляет снимок с разметкой и сводку подписью
func (b *Bot) sendResult(ctx context.Context, chatID int64, result *entity.AnalysisResult) {
	caption, err := b.describer.Describe(ctx, result)
	if err != nil {
		b.log.Error(component, err, map[string]interface{}{"analysis_id": result.ID})
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	preview, err := loadPreview(result.ProcessedImagePath)
	if err != nil {
		b.log.Warning(component, "overlay preview unavailable", map[string]interface{}{
			"analysis_id": result.ID,
			"error":       err.Error(),
		})
		b.sendMessage(chatID, caption)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: result.ID + ".jpg", Bytes: preview})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error(component, err, map[string]interface{}{"analysis_id": result.ID})
	}
}

// downloadFile скачивает файл из Telegram в хранилище загрузок
func (b *Bot) downloadFile(ctx context.Context, fileID, filename string) (string, error) {
	link, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	return b.store.SaveUpload(filename, resp.Body)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error(component, err, map[string]interface{}{"chat_id": chatID})
	}
}

// loadPreview уменьшает снимок до допустимого для Telegram размера и кодирует в JPEG
func loadPreview(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > maxPreviewSide || b.Dy() > maxPreviewSide {
		img = imaging.Fit(img, maxPreviewSide, maxPreviewSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)
