package mailer

import (
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/Isaaja/wimas-app-sub000/config"
)

// Mailer SMTP 邮件发送封装
// 仅用于异步提醒场景，调用方不应依赖其返回结果阻断业务
type Mailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewMailer 创建 Mailer；未配置 SMTP 时返回禁用实例（Send 直接跳过）
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger}
	if cfg.Enabled() {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	}
	return m
}

// Send 发送一封纯文本邮件
func (m *Mailer) Send(to []string, subject, body string) error {
	if m.dialer == nil {
		m.logger.Debug("SMTP 未配置，跳过邮件发送", zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
