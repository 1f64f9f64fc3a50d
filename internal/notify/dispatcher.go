// Package notify содержит коллабораторов рассылки уведомлений:
// отправку сообщений и учет уже доставленных, чтобы повторный проход
// рассылки не дублировал уведомления.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher доставляет уведомление пользователю. Конкретный канал
// (почта, вебхук) - внешний сервис за пределами этого ядра.
type Dispatcher interface {
	Notify(ctx context.Context, username, subject, message string) error
}

// LogDispatcher пишет уведомления в журнал процесса. Используется как
// продовая заглушка, пока канал доставки не подключен.
type LogDispatcher struct {
	Logger *logrus.Logger
}

// NewLogDispatcher создает новый экземпляр LogDispatcher.
func NewLogDispatcher(logger *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{Logger: logger}
}

// Notify пишет уведомление в журнал.
func (d *LogDispatcher) Notify(_ context.Context, username, subject, message string) error {
	d.Logger.WithFields(logrus.Fields{
		"username": username,
		"subject":  subject,
	}).Info(message)
	return nil
}
