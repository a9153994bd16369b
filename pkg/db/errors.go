package db

import "strings"

// QuotaConstraintCourses is the marker embedded in the course quota trigger's
// exception message. The repository matches on it to distinguish a quota
// rejection from any other insert failure.
const QuotaConstraintCourses = "course_purchase_quota"

// IsUniqueViolation reports whether the provided error references a unique
// violation constraint. When constraintName is provided, the helper looks for
// the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsQuotaViolation reports whether the error came from the course quota
// trigger rejecting an insert.
func IsQuotaViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), QuotaConstraintCourses)
}
