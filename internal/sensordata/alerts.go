package sensordata

import (
	"fmt"
)

// Threshold operators.
const (
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// AlertRule flags a measurement that crosses a fixed threshold.
type AlertRule struct {
	Field     string  `json:"field"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Severity  string  `json:"severity"`
}

// Alert is a rule breached by one reading.
type Alert struct {
	AlertRule
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// AlertEvent is the payload of sensor_data.alert events.
type AlertEvent struct {
	Reading *Reading `json:"reading"`
	Alerts  []Alert  `json:"alerts"`
}

// DefaultAlertRules are water-quality bounds for mangrove and seagrass sites.
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Field: "temperature", Operator: OperatorGreaterThan, Threshold: 35, Severity: SeverityWarning},
		{Field: "salinity", Operator: OperatorGreaterThan, Threshold: 40, Severity: SeverityWarning},
		{Field: "ph", Operator: OperatorLessThan, Threshold: 6.5, Severity: SeverityWarning},
		{Field: "ph", Operator: OperatorGreaterThan, Threshold: 8.5, Severity: SeverityWarning},
		{Field: "dissolved_o2", Operator: OperatorLessThan, Threshold: 4, Severity: SeverityCritical},
		{Field: "turbidity", Operator: OperatorGreaterThan, Threshold: 50, Severity: SeverityWarning},
	}
}

// EvaluateAlerts returns the rules breached by reading. Absent measurements
// never trigger.
func EvaluateAlerts(rules []AlertRule, reading *Reading) []Alert {
	values := make(map[string]float64)
	for _, m := range reading.measurements() {
		if m.value != nil {
			values[m.field] = *m.value
		}
	}

	var alerts []Alert
	for _, rule := range rules {
		value, ok := values[rule.Field]
		if !ok {
			continue
		}

		triggered := false
		switch rule.Operator {
		case OperatorGreaterThan:
			triggered = value > rule.Threshold
		case OperatorLessThan:
			triggered = value < rule.Threshold
		}
		if !triggered {
			continue
		}

		alerts = append(alerts, Alert{
			AlertRule: rule,
			Value:     value,
			Message:   alertMessage(rule, value),
		})
	}
	return alerts
}

func alertMessage(rule AlertRule, value float64) string {
	direction := "above"
	if rule.Operator == OperatorLessThan {
		direction = "below"
	}
	return fmt.Sprintf("%s %.2f is %s threshold %.2f", rule.Field, value, direction, rule.Threshold)
}
