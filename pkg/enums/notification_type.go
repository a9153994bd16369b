package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePurchaseRequested  NotificationType = "purchase_requested"
	NotificationTypePurchaseApproved   NotificationType = "purchase_approved"
	NotificationTypePurchaseRejected   NotificationType = "purchase_rejected"
	NotificationTypeEnrollmentRequest  NotificationType = "enrollment_request"
	NotificationTypeEnrollmentApproved NotificationType = "enrollment_approved"
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePurchaseRequested,
	NotificationTypePurchaseApproved,
	NotificationTypePurchaseRejected,
	NotificationTypeEnrollmentRequest,
	NotificationTypeEnrollmentApproved,
	NotificationTypeSystemAnnouncement,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
