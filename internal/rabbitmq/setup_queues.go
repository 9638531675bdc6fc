package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// TierUpgradedQueue — очередь уведомлений об активации подписки Pro.
const TierUpgradedQueue = "notifications.tier-upgraded"

// GetNotificationQueues возвращает конфигурацию очередей уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TierUpgradedQueue, RoutingKey: "tier.upgraded"},
	}
}
