package mq

import "time"

// routing key
const (
	RoutingNotificationUnread = "notification.unread"
	RoutingNotificationCount  = "notification.count"
	RoutingActivityRecorded   = "activity.recorded"
)

// NotificationUnreadPayload 一条新的未读通知，每条只广播一次
type NotificationUnreadPayload struct {
	UserID         int       `json:"user_id"`
	NotificationID int       `json:"notification_id"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationCountPayload 未读数发生变化
type NotificationCountPayload struct {
	UserID   int       `json:"user_id"`
	Count    int       `json:"count"`
	Previous int       `json:"previous"`
	PolledAt time.Time `json:"polled_at"`
}
