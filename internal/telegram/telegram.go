package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"

	"estate/server/internal/models"
)

// Sender is the part of the bot API the service needs.
type Sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// FilterSource supplies the current notification filters.
type FilterSource interface {
	Get() *models.TelegramFilters
}

type Service struct {
	logger  *logrus.Logger
	mu      sync.RWMutex
	config  models.TelegramConfig
	sender  Sender
	filters FilterSource
}

// NewService connects a bot when the configuration is enabled. A disabled
// service accepts every notification and sends nothing.
func NewService(config models.TelegramConfig, filters FilterSource, logger *logrus.Logger) (*Service, error) {
	var sender Sender
	if config.IsEnabled {
		if err := validateConfig(config); err != nil {
			return nil, err
		}
		bot, err := tb.NewBot(tb.Settings{
			Token:     config.BotToken,
			ParseMode: tb.ModeHTML,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		sender = bot
	}
	return NewServiceWithSender(config, sender, filters, logger), nil
}

func NewServiceWithSender(config models.TelegramConfig, sender Sender, filters FilterSource, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		logger:  logger,
		config:  config,
		sender:  sender,
		filters: filters,
	}
}

func validateConfig(config models.TelegramConfig) error {
	if config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}
	if config.ChatID == 0 {
		return errors.New("Telegram chat ID is not configured")
	}
	return nil
}

func (s *Service) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.IsEnabled && s.sender != nil
}

// SendMessage sends an HTML message to the configured chat
func (s *Service) SendMessage(message string) error {
	s.mu.RLock()
	config, sender := s.config, s.sender
	s.mu.RUnlock()

	if !config.IsEnabled {
		return nil
	}
	if err := validateConfig(config); err != nil {
		return err
	}
	if sender == nil {
		return errors.New("Telegram bot is not connected")
	}

	if _, err := sender.Send(&tb.Chat{ID: config.ChatID}, message, tb.ModeHTML); err != nil {
		return fmt.Errorf("failed to send message to Telegram: %w", err)
	}
	return nil
}

// Notify sends one workflow event, unless the filters exclude it.
func (s *Service) Notify(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.IsEnabled() {
		return nil
	}

	var filters *models.TelegramFilters
	if s.filters != nil {
		filters = s.filters.Get()
	}
	if !filters.IsEventAllowed(&event) {
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("Event filtered out")
		return nil
	}

	return s.SendMessage(FormatEvent(event))
}

// SendTestMessage checks the configuration end to end.
func (s *Service) SendTestMessage() error {
	if !s.IsEnabled() {
		return errors.New("Telegram notifications are disabled")
	}
	return s.SendMessage("🔔 Test notification from the estate server\n\nIf you see this message, your Telegram configuration is working correctly!")
}

// FormatEvent renders an event as an HTML Telegram message
func FormatEvent(event models.Event) string {
	name := html.EscapeString(event.PropertyName)
	if name == "" {
		name = fmt.Sprintf("#%d", event.PropertyID)
	}

	switch event.Type {
	case models.EventOfferCreated:
		return fmt.Sprintf("<b>💬 New offer</b>\n\n🏠 %s\n💰 %s", name, formatPrice(event.Price))
	case models.EventOfferAccepted:
		return fmt.Sprintf("<b>✅ Offer accepted</b>\n\n🏠 %s\n💰 %s", name, formatPrice(event.Price))
	case models.EventOfferRefused:
		return fmt.Sprintf("<b>❌ Offer refused</b>\n\n🏠 %s\n💰 %s", name, formatPrice(event.Price))
	case models.EventPropertySold:
		return fmt.Sprintf("<b>🎉 Property sold</b>\n\n🏠 %s", name)
	case models.EventPropertyCanceled:
		return fmt.Sprintf("<b>🚫 Property canceled</b>\n\n🏠 %s", name)
	case models.EventPropertyTypeDeleted:
		return fmt.Sprintf("<b>🗑️ Property type deleted</b>\n\n🏷️ %s\n📉 %d properties canceled",
			html.EscapeString(event.PropertyName), event.Count)
	default:
		return fmt.Sprintf("<b>%s</b>\n\n🏠 %s", html.EscapeString(string(event.Type)), name)
	}
}

func formatPrice(price float64) string {
	return fmt.Sprintf("€%.2f", price)
}
