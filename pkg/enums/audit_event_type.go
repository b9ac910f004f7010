package enums

import "fmt"

// AuditEventType labels the entries written to the audit log.
type AuditEventType string

const (
	AuditPurchaseCreated AuditEventType = "purchase_created"
	AuditPurchaseUpdated AuditEventType = "purchase_updated"
	AuditSaleCreated     AuditEventType = "sale_created"
	AuditSaleUpdated     AuditEventType = "sale_updated"
	AuditLowStockAlert   AuditEventType = "low_stock_alert"
	AuditUserLogin       AuditEventType = "user_login"
)

var validAuditEventTypes = []AuditEventType{
	AuditPurchaseCreated,
	AuditPurchaseUpdated,
	AuditSaleCreated,
	AuditSaleUpdated,
	AuditLowStockAlert,
	AuditUserLogin,
}

// String implements fmt.Stringer.
func (a AuditEventType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditEventType.
func (a AuditEventType) IsValid() bool {
	for _, candidate := range validAuditEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditEventType converts raw input into an AuditEventType.
func ParseAuditEventType(value string) (AuditEventType, error) {
	for _, candidate := range validAuditEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit event type %q", value)
}
